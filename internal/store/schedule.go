package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tatutaller/backend/internal/domain"
)

// ScheduleTx is the slice of repository behavior visible inside an
// offering-locked transaction. The conflict check runs against it, which
// keeps the check-then-insert sequence testable without a database.
type ScheduleTx interface {
	// ListActiveBookings returns the PENDING/CONFIRMED bookings for one
	// offering and calendar date, the set a capacity decision reads.
	ListActiveBookings(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.Booking, error)

	InsertBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
}
