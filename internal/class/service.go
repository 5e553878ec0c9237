package class

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("class not found")
	ErrSessionInvalid  = errors.New("invalid class session")
)

type Service interface {
	CreateSession(ctx context.Context, tenantID *int, req CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, id int) (*Session, error)
	GetAvailability(ctx context.Context, id int) (*SessionWithAvailability, error)
	ListUpcoming(ctx context.Context, limit int) ([]SessionWithAvailability, error)
	ListAvailableForUser(ctx context.Context, userID, limit int) ([]SessionWithAvailability, error)
	CancelSession(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateSession(ctx context.Context, tenantID *int, req CreateSessionRequest) (*Session, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	if req.MaxParticipants < 1 || req.DurationMinutes < 1 {
		return nil, ErrSessionInvalid
	}

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	return s.repo.Create(ctx, &Session{
		TenantID:         tenantID,
		InstructorID:     req.InstructorID,
		Name:             req.Name,
		Description:      description,
		StartsAt:         startsAt,
		DurationMinutes:  req.DurationMinutes,
		MaxParticipants:  req.MaxParticipants,
		TeenApproved:     req.TeenApproved,
		DropInPriceCents: req.DropInPriceCents,
	})
}

func (s *service) GetSession(ctx context.Context, id int) (*Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetAvailability loads one session with its live seat counts. Reads are not
// serialized against concurrent bookings, so the count is a snapshot.
func (s *service) GetAvailability(ctx context.Context, id int) (*SessionWithAvailability, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	count, err := s.repo.ConfirmedCount(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &SessionWithAvailability{Session: *session, ConfirmedCount: count}
	out.AvailableSpots = AvailableSpots(session, count)
	out.IsFull = IsFull(session, count)
	return out, nil
}

func (s *service) ListUpcoming(ctx context.Context, limit int) ([]SessionWithAvailability, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListUpcoming(ctx, limit)
}

func (s *service) ListAvailableForUser(ctx context.Context, userID, limit int) ([]SessionWithAvailability, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListAvailableForUser(ctx, userID, limit)
}

// CancelSession flips the cancellation flag only. Existing bookings are not
// cascade-cancelled.
func (s *service) CancelSession(ctx context.Context, id int) error {
	err := s.repo.MarkCancelled(ctx, id)
	if errors.Is(err, ErrSessionNotFoundOrCancelled) {
		return ErrSessionNotFound
	}
	return err
}
