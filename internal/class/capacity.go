package class

import "time"

// Capacity computations over a session and its confirmed-booking count.
// Pure read-side helpers; the confirmed count comes from the bookings table.

func AvailableSpots(s *Session, confirmedCount int) int {
	spots := s.MaxParticipants - confirmedCount
	if spots < 0 {
		return 0
	}
	return spots
}

func IsFull(s *Session, confirmedCount int) bool {
	return confirmedCount >= s.MaxParticipants
}

// IsBookable reports whether the session accepts new bookings: not cancelled
// and not yet started.
func IsBookable(s *Session, now time.Time) bool {
	return !s.IsCancelled && s.StartsAt.After(now)
}
