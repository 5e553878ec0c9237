package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"wodbook/internal/logger"
	"wodbook/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey   = "notifications"
	maxTries   = 3
	retryDelay = 5 * time.Second
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service queues member notifications on a redis list and delivers them over
// SMTP from a background worker. Queueing is the only operation callers wait
// on; delivery and retries happen out of band.
type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		metrics.RecordNotification(job.Type, "failed")
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue %s notification to %s: %v", job.Type, job.To, err)
		metrics.RecordNotification(job.Type, "failed")
		return err
	}

	logger.Infof("Notification queued: %s to %s", job.Type, job.To)
	metrics.RecordNotification(job.Type, "queued")
	return nil
}

func (s *Service) BookingConfirmed(ctx context.Context, email, name, className string, startsAt time.Time) error {
	return s.enqueue(ctx, Job{
		Type:    "booking_confirmed",
		To:      email,
		Name:    name,
		Subject: "Booking confirmed: " + className,
		Body: fmt.Sprintf("Hi %s,\n\nYour seat in %s on %s is confirmed. See you there!",
			name, className, startsAt.Format("Jan 2, 2006 at 3:04 PM")),
	})
}

func (s *Service) SpotAvailable(ctx context.Context, email, name, className string, startsAt time.Time) error {
	return s.enqueue(ctx, Job{
		Type:    "spot_available",
		To:      email,
		Name:    name,
		Subject: "A spot opened up in " + className,
		Body: fmt.Sprintf("Hi %s,\n\nGood news! A spot opened up in %s on %s and your waiting list booking is now confirmed.",
			name, className, startsAt.Format("Jan 2, 2006 at 3:04 PM")),
	})
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	return length
}

// Start runs the delivery worker until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return
		default:
			s.processNext(ctx)
			metrics.NotificationQueueLength.Set(float64(s.QueueLength(ctx)))
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send %s notification to %s: %v", job.Type, job.To, err)

		if job.Tries < maxTries {
			time.Sleep(retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			logger.Errorf("Notification to %s dropped after %d attempts", job.To, maxTries)
			metrics.RecordNotification(job.Type, "dropped")
		}
		return
	}

	metrics.RecordNotification(job.Type, "sent")
}

func (s *Service) sendNow(job Job) error {
	addr := s.smtpHost + ":" + s.smtpPort

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.fromName, s.from, job.To, job.Subject, job.Body))

	var a smtp.Auth
	if s.smtpUser != "" {
		a = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	return smtp.SendMail(addr, a, s.from, []string{job.To}, msg)
}

func (s *Service) Close() error {
	return s.redis.Close()
}
