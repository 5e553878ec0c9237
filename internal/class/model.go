package class

import "time"

// Session is a scheduled, instructor-led class.
type Session struct {
	ID               int       `db:"id" json:"id"`
	TenantID         *int      `db:"tenant_id" json:"tenant_id,omitempty"`
	InstructorID     int       `db:"instructor_id" json:"instructor_id"`
	Name             string    `db:"name" json:"name"`
	Description      *string   `db:"description" json:"description,omitempty"`
	StartsAt         time.Time `db:"starts_at" json:"starts_at"`
	DurationMinutes  int       `db:"duration_minutes" json:"duration_minutes"`
	MaxParticipants  int       `db:"max_participants" json:"max_participants"`
	TeenApproved     bool      `db:"teen_approved" json:"teen_approved"`
	DropInPriceCents *int64    `db:"drop_in_price_cents" json:"drop_in_price_cents,omitempty"`
	IsCancelled      bool      `db:"is_cancelled" json:"is_cancelled"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type SessionWithAvailability struct {
	Session
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	ConfirmedCount int    `db:"confirmed_count" json:"confirmed_count"`
	AvailableSpots int    `json:"available_spots"`
	IsFull         bool   `json:"is_full"`
}

type CreateSessionRequest struct {
	InstructorID     int    `json:"instructor_id" binding:"required"`
	Name             string `json:"name" binding:"required,max=255"`
	Description      string `json:"description"`
	StartsAt         string `json:"starts_at" binding:"required,rfc3339"`
	DurationMinutes  int    `json:"duration_minutes" binding:"required,min=1"`
	MaxParticipants  int    `json:"max_participants" binding:"required,min=1"`
	TeenApproved     bool   `json:"teen_approved"`
	DropInPriceCents *int64 `json:"drop_in_price_cents"`
}
