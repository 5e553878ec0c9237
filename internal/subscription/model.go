package subscription

import "time"

type Type string
type Status string

const (
	TypeBasic     Type = "basic"
	TypeUnlimited Type = "unlimited"
	TypeTeen      Type = "teen"

	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

type Subscription struct {
	ID                 int        `db:"id" json:"id"`
	UserID             int        `db:"user_id" json:"user_id"`
	Type               Type       `db:"type" json:"type"`
	Status             Status     `db:"status" json:"status"`
	AmountCents        int64      `db:"amount_cents" json:"amount_cents"`
	CurrentPeriodStart time.Time  `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `db:"current_period_end" json:"current_period_end"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	UserID      int   `json:"user_id" binding:"required"`
	Type        Type  `json:"type" binding:"required,oneof=basic unlimited teen"`
	AmountCents int64 `json:"amount_cents" binding:"min=0"`
	PeriodDays  int   `json:"period_days" binding:"required,min=1"`
}

// IsActive reports whether the subscription is current. Display/billing
// only; booking admission never consults subscriptions.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive && s.CurrentPeriodEnd.After(time.Now())
}
