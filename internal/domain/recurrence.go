package domain

import (
	"errors"
	"fmt"
	"time"
)

// RecurrenceMode selects how a weekly series terminates. The studio's
// booking flow historically mixed two rules — an explicit end date and a
// fixed number of weeks — so the mode is named configuration rather than
// an implicit choice.
type RecurrenceMode string

const (
	RecurrenceByEndDate RecurrenceMode = "end_date"
	RecurrenceByCount   RecurrenceMode = "count"
)

func ParseRecurrenceMode(s string) (RecurrenceMode, error) {
	switch RecurrenceMode(s) {
	case RecurrenceByEndDate:
		return RecurrenceByEndDate, nil
	case RecurrenceByCount:
		return RecurrenceByCount, nil
	}
	return "", fmt.Errorf("unknown recurrence mode %q", s)
}

// MaxRecurrenceHorizon bounds how far ahead a series may extend. Requests
// past the horizon are rejected rather than silently truncated.
const MaxRecurrenceHorizon = 180 * 24 * time.Hour

var (
	ErrRecurrenceEndBeforeStart = errors.New("recurrence end date is before the first date")
	ErrRecurrenceTooLong        = errors.New("recurrence extends past the allowed horizon")
	ErrRecurrenceCountInvalid   = errors.New("recurrence count must be at least 1")
)

type RecurrenceRule struct {
	Mode    RecurrenceMode
	EndDate time.Time // inclusive; ByEndDate only
	Count   int       // ByCount only
}

// ExpandWeekly produces the ordered calendar dates of a weekly series:
// one per week starting at firstDate, stepping exactly 7 days, until the
// rule terminates. ByEndDate includes a date falling exactly on the end
// date; ByCount yields exactly Count dates. Deterministic and pure.
func ExpandWeekly(firstDate time.Time, rule RecurrenceRule) ([]time.Time, error) {
	first := DateOnly(firstDate)

	switch rule.Mode {
	case RecurrenceByEndDate:
		end := DateOnly(rule.EndDate)
		if end.Before(first) {
			return nil, ErrRecurrenceEndBeforeStart
		}
		if end.Sub(first) > MaxRecurrenceHorizon {
			return nil, ErrRecurrenceTooLong
		}
		var out []time.Time
		for d := first; !d.After(end); d = d.AddDate(0, 0, 7) {
			out = append(out, d)
		}
		return out, nil

	case RecurrenceByCount:
		if rule.Count < 1 {
			return nil, ErrRecurrenceCountInvalid
		}
		if time.Duration(rule.Count-1)*7*24*time.Hour > MaxRecurrenceHorizon {
			return nil, ErrRecurrenceTooLong
		}
		out := make([]time.Time, 0, rule.Count)
		for i := 0; i < rule.Count; i++ {
			out = append(out, first.AddDate(0, 0, 7*i))
		}
		return out, nil
	}

	return nil, fmt.Errorf("unknown recurrence mode %q", rule.Mode)
}
