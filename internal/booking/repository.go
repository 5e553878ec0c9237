package booking

import (
	"context"
	"database/sql"
	"errors"

	"wodbook/internal/class"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrStateChanged = errors.New("booking is not in the expected state")

const bookingColumns = `id, user_id, class_id, status, booking_type,
	amount_paid_cents, is_refundable, created_at`

const uniqueViolation = "23505"

type sqlStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(q TxQueries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&txQueries{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqlStore) GetByID(ctx context.Context, id int) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	err := s.db.GetContext(ctx, &b, query, id)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

const withClassQuery = `
	SELECT
		b.id, b.user_id, b.class_id, b.status, b.booking_type,
		b.amount_paid_cents, b.is_refundable, b.created_at,
		c.name AS class_name,
		c.starts_at AS class_starts_at,
		c.duration_minutes,
		i.name AS instructor_name,
		u.name AS user_name,
		u.email AS user_email
	FROM bookings b
	JOIN classes c ON b.class_id = c.id
	JOIN users i ON c.instructor_id = i.id
	JOIN users u ON b.user_id = u.id`

func (s *sqlStore) ListByUser(ctx context.Context, userID int) ([]BookingWithClass, error) {
	query := withClassQuery + `
	WHERE b.user_id = $1
	ORDER BY c.starts_at ASC, b.created_at DESC`

	var bookings []BookingWithClass
	err := s.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (s *sqlStore) ListByClass(ctx context.Context, classID int) ([]BookingWithClass, error) {
	query := withClassQuery + `
	WHERE b.class_id = $1
	ORDER BY b.created_at ASC`

	var bookings []BookingWithClass
	err := s.db.SelectContext(ctx, &bookings, query, classID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

type txQueries struct {
	tx *sqlx.Tx
}

func (q *txQueries) LockClass(ctx context.Context, classID int) (*class.Session, error) {
	query := `
		SELECT id, tenant_id, instructor_id, name, description, starts_at,
			duration_minutes, max_participants, teen_approved, drop_in_price_cents,
			is_cancelled, created_at
		FROM classes
		WHERE id = $1
		FOR UPDATE
	`

	var s class.Session
	err := q.tx.GetContext(ctx, &s, query, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (q *txQueries) FindByUserAndClass(ctx context.Context, userID, classID int) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND class_id = $2
	`

	var b Booking
	err := q.tx.GetContext(ctx, &b, query, userID, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (q *txQueries) CountConfirmed(ctx context.Context, classID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE class_id = $1 AND status = 'confirmed'
	`

	var count int
	err := q.tx.GetContext(ctx, &count, query, classID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (q *txQueries) Insert(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (user_id, class_id, status, booking_type, amount_paid_cents, is_refundable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bookingColumns

	var created Booking
	err := q.tx.GetContext(ctx, &created, query,
		b.UserID, b.ClassID, b.Status, b.BookingType, b.AmountPaidCents, b.IsRefundable)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}

	return &created, nil
}

func (q *txQueries) GetByID(ctx context.Context, id int) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	err := q.tx.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (q *txQueries) UpdateStatus(ctx context.Context, id int, from, to Status) error {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.tx.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrStateChanged
	}

	return nil
}

func (q *txQueries) OldestWaiting(ctx context.Context, classID int) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE class_id = $1 AND status = 'waiting_list'
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE
	`

	var b Booking
	err := q.tx.GetContext(ctx, &b, query, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}
