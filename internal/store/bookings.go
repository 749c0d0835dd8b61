package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tatutaller/backend/internal/domain"
)

// BookingRepository owns the bookings table, the only shared mutable
// state in the scheduling engine. Create operations revalidate the
// request inside a transaction serialized per offering, so the capacity
// check and the insert form one atomic unit; a failed check surfaces the
// domain rejection (ErrCapacityExceeded and friends) unwrapped.
type BookingRepository interface {
	// CreatePunctual validates and inserts a single booking.
	CreatePunctual(ctx context.Context, off domain.ClassOffering, booking domain.Booking) (domain.Booking, error)

	// CreateSeries validates every instance of a recurring series before
	// inserting any of them. If one instance fails, none persist.
	CreateSeries(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error)

	Get(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	ListForOfferingDate(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.Booking, error)
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Booking, error)
	ListForInstructor(ctx context.Context, instructorID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OfferingCatalog is the read-only view of class offerings the engine
// validates against. Writes happen in the catalog administration surface.
type OfferingCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (domain.ClassOffering, error)
	ListActive(ctx context.Context) ([]domain.ClassOffering, error)
}

// UserDirectory resolves customer and instructor references for
// authorization and notification addressing.
type UserDirectory interface {
	Get(ctx context.Context, id string) (domain.User, error)
}
