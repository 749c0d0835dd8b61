package domain

import (
	"errors"
	"fmt"
	"time"
)

// Rejection reasons for a requested (offering, date, start, end). These are
// expected outcomes of normal operation, not faults; callers surface them
// as result values.
var (
	ErrInvalidRange          = errors.New("start must be before end")
	ErrOutsideOfferingWindow = errors.New("requested range is outside the offering's time window")
	ErrCapacityExceeded      = errors.New("offering capacity exceeded for the requested range")
)

// Overlaps reports half-open interval intersection: [aStart,aEnd) and
// [bStart,bEnd) overlap iff aStart < bEnd && bStart < aEnd. Touching
// endpoints do not overlap, so back-to-back bookings never conflict.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// CountActiveOverlapping counts the bookings holding a seat (PENDING or
// CONFIRMED) whose interval intersects [start,end). The caller scopes the
// slice to one offering and date.
func CountActiveOverlapping(bookings []Booking, start, end TimeOfDay) int {
	n := 0
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			n++
		}
	}
	return n
}

// ValidateRequest runs the conflict checks for a requested interval, in
// order, short-circuiting on the first failure:
//
//  1. start < end, else ErrInvalidRange
//  2. [start,end) within the offering window, else ErrOutsideOfferingWindow
//  3. active overlap count below capacity, else ErrCapacityExceeded
//
// It is a pure read-then-decide check; making check-then-insert atomic is
// the repository's responsibility.
func ValidateRequest(off ClassOffering, start, end TimeOfDay, existing []Booking) error {
	if !start.Valid() || !end.Valid() || start >= end {
		return ErrInvalidRange
	}
	if start < off.StartTime || end > off.EndTime {
		return ErrOutsideOfferingWindow
	}
	if CountActiveOverlapping(existing, start, end) >= off.Capacity {
		return ErrCapacityExceeded
	}
	return nil
}

// TimeSlot is a candidate bookable window, computed on demand and never
// persisted. Display carries the "HH:MM - HH:MM" label the UI renders.
type TimeSlot struct {
	Start     TimeOfDay `json:"startTime"`
	End       TimeOfDay `json:"endTime"`
	Available bool      `json:"available"`
	Display   string    `json:"displayText"`
}

// ComputeSlots generates the candidate slots for an offering: fixed-width
// windows at a fixed stride starting at the offering's start time,
// stopping once a slot would run past the offering's end time. A slot is
// available while the active bookings overlapping it stay below capacity.
// Pure function of its inputs; calling it twice with the same booking
// state yields identical results.
func ComputeSlots(off ClassOffering, bookings []Booking, width, stride time.Duration) []TimeSlot {
	widthMin := int(width / time.Minute)
	strideMin := int(stride / time.Minute)
	if widthMin <= 0 || strideMin <= 0 {
		return nil
	}

	var out []TimeSlot
	for start := off.StartTime; ; start = start.AddMinutes(strideMin) {
		end := start.AddMinutes(widthMin)
		if end > off.EndTime {
			break
		}
		out = append(out, TimeSlot{
			Start:     start,
			End:       end,
			Available: CountActiveOverlapping(bookings, start, end) < off.Capacity,
			Display:   fmt.Sprintf("%s - %s", start, end),
		})
	}
	return out
}
