package booking

import (
	"context"

	"wodbook/internal/class"
)

// TxQueries are the booking queries available inside one transaction. The
// class row lock taken by LockClass is the serialization point for every
// admission and promotion touching that class.
type TxQueries interface {
	// LockClass loads the class row under FOR UPDATE. Returns (nil, nil)
	// when the class does not exist.
	LockClass(ctx context.Context, classID int) (*class.Session, error)
	// FindByUserAndClass returns the member's booking row for the class in
	// any status, or (nil, nil) when none exists.
	FindByUserAndClass(ctx context.Context, userID, classID int) (*Booking, error)
	CountConfirmed(ctx context.Context, classID int) (int, error)
	Insert(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	// UpdateStatus performs a guarded transition; zero rows affected means
	// the booking was not in the expected state.
	UpdateStatus(ctx context.Context, id int, from, to Status) error
	// OldestWaiting returns the next waiting-list booking for the class,
	// ordered by creation time then id, or (nil, nil) when the list is empty.
	OldestWaiting(ctx context.Context, classID int) (*Booking, error)
}

type Store interface {
	InTx(ctx context.Context, fn func(q TxQueries) error) error
	GetByID(ctx context.Context, id int) (*Booking, error)
	ListByUser(ctx context.Context, userID int) ([]BookingWithClass, error)
	ListByClass(ctx context.Context, classID int) ([]BookingWithClass, error)
}
