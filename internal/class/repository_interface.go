package class

import "context"

type Repository interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	GetByID(ctx context.Context, id int) (*Session, error)
	ListUpcoming(ctx context.Context, limit int) ([]SessionWithAvailability, error)
	ListAvailableForUser(ctx context.Context, userID, limit int) ([]SessionWithAvailability, error)
	ConfirmedCount(ctx context.Context, classID int) (int, error)
	MarkCancelled(ctx context.Context, id int) error
}
