package booking

import (
	"context"
	"errors"
	"time"

	"wodbook/internal/class"
	"wodbook/internal/logger"
	"wodbook/internal/metrics"
	"wodbook/internal/user"
)

var (
	ErrClassNotFound    = errors.New("class not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDuplicateBooking = errors.New("member already has a booking for this class")
	ErrClassStarted     = errors.New("class has already started")
	ErrClassCancelled   = errors.New("class has been cancelled")
	ErrNotOwner         = errors.New("booking belongs to another member")
	ErrNotRefundable    = errors.New("booking is not refundable at this time")
)

// refundWindow is the cutoff before class start under which paid drop-in and
// day-pass bookings can no longer be cancelled.
const refundWindow = time.Hour

// Notifier delivers member-facing notifications. Calls are fire-and-forget:
// delivery failure never fails the booking operation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, email, name, className string, startsAt time.Time) error
	SpotAvailable(ctx context.Context, email, name, className string, startsAt time.Time) error
}

type Service interface {
	CreateBooking(ctx context.Context, memberID, classID int) (*Booking, error)
	CancelBooking(ctx context.Context, memberID, bookingID int) error
	GetBooking(ctx context.Context, memberID, bookingID int) (*Booking, error)
	ListMyBookings(ctx context.Context, memberID int) ([]BookingWithClass, error)
	ListByClass(ctx context.Context, classID int) ([]BookingWithClass, error)
}

type service struct {
	store    Store
	users    user.Repository
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, users user.Repository, notifier Notifier) Service {
	return &service{
		store:    store,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateBooking admits a member into a class. Rejections are checked in a
// fixed order: duplicate booking, class already started, class cancelled.
// Admission classifies the booking as confirmed while seats remain and as
// waiting_list once the class is full. The capacity read and the insert run
// in one transaction holding the class row lock, so two members cannot both
// claim the last seat.
func (s *service) CreateBooking(ctx context.Context, memberID, classID int) (*Booking, error) {
	var (
		created *Booking
		session *class.Session
	)

	err := s.store.InTx(ctx, func(q TxQueries) error {
		cls, err := q.LockClass(ctx, classID)
		if err != nil {
			return err
		}
		if cls == nil {
			return ErrClassNotFound
		}
		session = cls

		existing, err := q.FindByUserAndClass(ctx, memberID, classID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateBooking
		}

		now := s.now()
		if !cls.StartsAt.After(now) {
			return ErrClassStarted
		}
		if cls.IsCancelled {
			return ErrClassCancelled
		}

		confirmedCount, err := q.CountConfirmed(ctx, classID)
		if err != nil {
			return err
		}

		status := StatusConfirmed
		if class.IsFull(cls, confirmedCount) {
			status = StatusWaitingList
		}

		// All bookings are free membership bookings; membership status is
		// not checked at admission.
		created, err = q.Insert(ctx, &Booking{
			UserID:       memberID,
			ClassID:      classID,
			Status:       status,
			BookingType:  TypeMembership,
			IsRefundable: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBooking(string(created.Status))

	if created.Status == StatusConfirmed {
		if member, err := s.users.FindByID(ctx, memberID); err == nil {
			if err := s.notifier.BookingConfirmed(ctx, member.Email, member.Name, session.Name, session.StartsAt); err != nil {
				logger.Errorf("Failed to queue booking confirmation for user %d: %v", memberID, err)
			}
		}
	}

	return created, nil
}

// CancelBooking cancels a member's own booking, subject to the refund window,
// and promotes the oldest waiting-list booking when a confirmed seat is
// vacated. Cancellation and promotion run in one transaction holding the
// class row lock; exactly one promotion happens per vacated seat.
func (s *service) CancelBooking(ctx context.Context, memberID, bookingID int) error {
	var (
		promoted *Booking
		session  *class.Session
	)

	err := s.store.InTx(ctx, func(q TxQueries) error {
		b, err := q.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}

		cls, err := q.LockClass(ctx, b.ClassID)
		if err != nil {
			return err
		}
		if cls == nil {
			return ErrBookingNotFound
		}
		session = cls

		// Re-read under the class lock; a concurrent cancellation may have
		// moved the booking before we got here.
		b, err = q.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}

		if b.UserID != memberID {
			return ErrNotOwner
		}
		if b.Status == StatusCancelled || !s.refundableNow(b, cls.StartsAt) {
			return ErrNotRefundable
		}

		wasConfirmed := b.Status == StatusConfirmed

		if err := q.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled); err != nil {
			return err
		}

		if wasConfirmed {
			next, err := q.OldestWaiting(ctx, b.ClassID)
			if err != nil {
				return err
			}
			if next != nil {
				if err := q.UpdateStatus(ctx, next.ID, StatusWaitingList, StatusConfirmed); err != nil {
					return err
				}
				promoted = next
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordCancellation()

	if promoted != nil {
		metrics.RecordPromotion()

		if member, err := s.users.FindByID(ctx, promoted.UserID); err == nil {
			if err := s.notifier.SpotAvailable(ctx, member.Email, member.Name, session.Name, session.StartsAt); err != nil {
				logger.Errorf("Failed to queue spot notification for user %d: %v", promoted.UserID, err)
			}
		}
	}

	return nil
}

// refundableNow applies the refund-eligibility rule: non-refundable bookings
// never pass; paid drop-in and day-pass bookings pass only while more than an
// hour remains before class start; membership bookings always pass.
func (s *service) refundableNow(b *Booking, startsAt time.Time) bool {
	if !b.IsRefundable {
		return false
	}

	if b.BookingType == TypeDropIn || b.BookingType == TypeDayPass {
		return startsAt.Sub(s.now()) > refundWindow
	}

	return true
}

// GetBooking returns a member's own booking.
func (s *service) GetBooking(ctx context.Context, memberID, bookingID int) (*Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil || b == nil {
		return nil, ErrBookingNotFound
	}
	if b.UserID != memberID {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *service) ListMyBookings(ctx context.Context, memberID int) ([]BookingWithClass, error) {
	return s.store.ListByUser(ctx, memberID)
}

func (s *service) ListByClass(ctx context.Context, classID int) ([]BookingWithClass, error) {
	return s.store.ListByClass(ctx, classID)
}
