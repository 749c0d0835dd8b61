package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// TimeOfDay is a wall-clock time within a single day, stored as minutes
// since midnight. Offerings and bookings carry a calendar date separately,
// so interval arithmetic never crosses a day boundary.
type TimeOfDay int

const MinutesPerDay = 24 * 60

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return NewTimeOfDay(hour, minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// AddMinutes may yield a value past midnight; callers compare against the
// offering window, which caps slots before they wrap.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	return t + TimeOfDay(m)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
		return nil
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}
