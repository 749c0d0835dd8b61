package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case BookingStatusPending:
		return BookingStatusPending, nil
	case BookingStatusConfirmed:
		return BookingStatusConfirmed, nil
	case BookingStatusCancelled:
		return BookingStatusCancelled, nil
	case BookingStatusCompleted:
		return BookingStatusCompleted, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Active reports whether the booking holds a seat: only PENDING and
// CONFIRMED bookings count toward an offering's capacity.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

var legalTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransitionTo implements the booking state machine:
// PENDING -> CONFIRMED -> COMPLETED, with cancellation allowed from
// PENDING and CONFIRMED. CANCELLED and COMPLETED are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

type BookingKind string

const (
	BookingKindPunctual  BookingKind = "PUNCTUAL"
	BookingKindRecurring BookingKind = "RECURRING"
)

func ParseBookingKind(s string) (BookingKind, error) {
	switch BookingKind(strings.ToUpper(strings.TrimSpace(s))) {
	case BookingKindPunctual:
		return BookingKindPunctual, nil
	case BookingKindRecurring:
		return BookingKindRecurring, nil
	}
	return "", fmt.Errorf("unknown booking kind %q", s)
}

// Booking is one reserved occurrence of an offering for one customer.
// A recurring request produces N independent rows; each is mutable on its
// own afterward, so cancelling one instance never touches its siblings.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID                uuid.UUID     `bun:"id,pk,type:uuid" json:"id"`
	OfferingID        uuid.UUID     `bun:"offering_id,notnull,type:uuid" json:"offeringId"`
	CustomerID        string        `bun:"customer_id,notnull" json:"customerId"`
	Date              time.Time     `bun:"date,notnull" json:"date"`
	StartTime         TimeOfDay     `bun:"start_time,notnull" json:"startTime"`
	EndTime           TimeOfDay     `bun:"end_time,notnull" json:"endTime"`
	Status            BookingStatus `bun:"status,notnull" json:"status"`
	Kind              BookingKind   `bun:"kind,notnull" json:"kind"`
	RecurrenceEndDate *time.Time    `bun:"recurrence_end_date" json:"recurrenceEndDate,omitempty"`
	Notes             string        `bun:"notes" json:"notes,omitempty"`
	AdminNotes        string        `bun:"admin_notes" json:"adminNotes,omitempty"`
	CreatedAt         time.Time     `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt         time.Time     `bun:"updated_at,notnull" json:"updatedAt"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

// DateOnly truncates t to its calendar day in UTC. Booking dates are
// always stored this way so equality checks are exact.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
