package class

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrSessionNotFoundOrCancelled = errors.New("class not found or already cancelled")

const sessionColumns = `id, tenant_id, instructor_id, name, description, starts_at,
	duration_minutes, max_participants, teen_approved, drop_in_price_cents,
	is_cancelled, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Session) (*Session, error) {
	query := `
		INSERT INTO classes (tenant_id, instructor_id, name, description, starts_at,
			duration_minutes, max_participants, teen_approved, drop_in_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionColumns

	var created Session
	err := r.db.GetContext(ctx, &created, query,
		s.TenantID, s.InstructorID, s.Name, s.Description, s.StartsAt,
		s.DurationMinutes, s.MaxParticipants, s.TeenApproved, s.DropInPriceCents)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM classes WHERE id = $1`

	var s Session
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

const availabilityQuery = `
	SELECT
		c.id, c.tenant_id, c.instructor_id, c.name, c.description, c.starts_at,
		c.duration_minutes, c.max_participants, c.teen_approved,
		c.drop_in_price_cents, c.is_cancelled, c.created_at,
		u.name AS instructor_name,
		COUNT(b.id) FILTER (WHERE b.status = 'confirmed') AS confirmed_count
	FROM classes c
	JOIN users u ON c.instructor_id = u.id
	LEFT JOIN bookings b ON b.class_id = c.id
	WHERE c.is_cancelled = FALSE AND c.starts_at > NOW()`

const availabilityGroup = `
	GROUP BY c.id, u.name
	ORDER BY c.starts_at ASC
	LIMIT `

func (r *repository) ListUpcoming(ctx context.Context, limit int) ([]SessionWithAvailability, error) {
	query := availabilityQuery + availabilityGroup + `$1`

	var sessions []SessionWithAvailability
	err := r.db.SelectContext(ctx, &sessions, query, limit)
	if err != nil {
		return nil, err
	}

	fillAvailability(sessions)
	return sessions, nil
}

// ListAvailableForUser lists upcoming sessions the member has no booking row
// for, in any status. A cancelled booking still excludes the session because
// the member cannot re-book it.
func (r *repository) ListAvailableForUser(ctx context.Context, userID, limit int) ([]SessionWithAvailability, error) {
	query := availabilityQuery + `
	AND NOT EXISTS (
		SELECT 1 FROM bookings mb
		WHERE mb.class_id = c.id AND mb.user_id = $1
	)` + availabilityGroup + `$2`

	var sessions []SessionWithAvailability
	err := r.db.SelectContext(ctx, &sessions, query, userID, limit)
	if err != nil {
		return nil, err
	}

	fillAvailability(sessions)
	return sessions, nil
}

func (r *repository) ConfirmedCount(ctx context.Context, classID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE class_id = $1 AND status = 'confirmed'
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, classID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// MarkCancelled flips the cancellation flag. Existing bookings are left
// untouched; the flag only blocks new admissions.
func (r *repository) MarkCancelled(ctx context.Context, id int) error {
	query := `
		UPDATE classes
		SET is_cancelled = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_cancelled = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSessionNotFoundOrCancelled
	}

	return nil
}

func fillAvailability(sessions []SessionWithAvailability) {
	for i := range sessions {
		s := &sessions[i]
		s.AvailableSpots = AvailableSpots(&s.Session, s.ConfirmedCount)
		s.IsFull = IsFull(&s.Session, s.ConfirmedCount)
	}
}
