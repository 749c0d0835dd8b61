package domain

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	all := []BookingStatus{
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusCancelled,
		BookingStatusCompleted,
	}

	allowed := map[BookingStatus]map[BookingStatus]bool{
		BookingStatusPending: {
			BookingStatusConfirmed: true,
			BookingStatusCancelled: true,
		},
		BookingStatusConfirmed: {
			BookingStatusCompleted: true,
			BookingStatusCancelled: true,
		},
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			want := allowed[from][to]
			if got != want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	if !BookingStatusCancelled.Terminal() || !BookingStatusCompleted.Terminal() {
		t.Fatal("CANCELLED and COMPLETED must be terminal")
	}
	if BookingStatusPending.Terminal() || BookingStatusConfirmed.Terminal() {
		t.Fatal("PENDING and CONFIRMED must not be terminal")
	}
	if !BookingStatusPending.Active() || !BookingStatusConfirmed.Active() {
		t.Fatal("PENDING and CONFIRMED must hold a seat")
	}
	if BookingStatusCancelled.Active() || BookingStatusCompleted.Active() {
		t.Fatal("terminal statuses must not hold a seat")
	}
}

func TestParseBookingStatus(t *testing.T) {
	got, err := ParseBookingStatus("confirmed")
	if err != nil {
		t.Fatalf("ParseBookingStatus error = %v", err)
	}
	if got != BookingStatusConfirmed {
		t.Fatalf("ParseBookingStatus = %v, want CONFIRMED", got)
	}
	if _, err := ParseBookingStatus("ARCHIVED"); err == nil {
		t.Fatal("ParseBookingStatus of unknown status succeeded, want error")
	}
}

func TestParseBookingKind(t *testing.T) {
	got, err := ParseBookingKind("recurring")
	if err != nil {
		t.Fatalf("ParseBookingKind error = %v", err)
	}
	if got != BookingKindRecurring {
		t.Fatalf("ParseBookingKind = %v, want RECURRING", got)
	}
	if _, err := ParseBookingKind("monthly"); err == nil {
		t.Fatal("ParseBookingKind of unknown kind succeeded, want error")
	}
}
