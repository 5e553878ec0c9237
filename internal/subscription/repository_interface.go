package subscription

import "context"

type Repository interface {
	Create(ctx context.Context, userID int, stype Type, amountCents int64, periodDays int) (*Subscription, error)
	ListByUser(ctx context.Context, userID int) ([]Subscription, error)
	GetActiveForUser(ctx context.Context, userID int) (*Subscription, error)
	Cancel(ctx context.Context, id, userID int) error
}
