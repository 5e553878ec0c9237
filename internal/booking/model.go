package booking

import "time"

type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusWaitingList Status = "waiting_list"
	StatusCancelled   Status = "cancelled"
)

type BookingType string

const (
	TypeMembership BookingType = "membership"
	TypeDropIn     BookingType = "drop_in"
	TypeDayPass    BookingType = "day_pass"
)

type Booking struct {
	ID              int         `db:"id" json:"id"`
	UserID          int         `db:"user_id" json:"user_id"`
	ClassID         int         `db:"class_id" json:"class_id"`
	Status          Status      `db:"status" json:"status"`
	BookingType     BookingType `db:"booking_type" json:"booking_type"`
	AmountPaidCents *int64      `db:"amount_paid_cents" json:"amount_paid_cents,omitempty"`
	IsRefundable    bool        `db:"is_refundable" json:"is_refundable"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

type BookingWithClass struct {
	Booking
	ClassName       string    `db:"class_name" json:"class_name"`
	ClassStartsAt   time.Time `db:"class_starts_at" json:"class_starts_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	InstructorName  string    `db:"instructor_name" json:"instructor_name"`
	UserName        string    `db:"user_name" json:"user_name"`
	UserEmail       string    `db:"user_email" json:"user_email"`
}

type BookRequest struct {
	ClassID int `json:"class_id" binding:"required"`
}

type BookResponse struct {
	Message string   `json:"message" example:"Class booked successfully!"`
	Booking *Booking `json:"booking"`
}
