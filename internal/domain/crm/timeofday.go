package crm

import (
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// TimeOfDay is a wall clock time without a date, second precision. Users
// enter minutes; stamps taken from the clock keep their seconds so two status
// changes within one minute stay distinct.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// NewTimeOfDay validates hour and minute
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, shared.NewFieldError("INVALID_TIME", "time", "Time must be between 00:00 and 23:59")
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseTimeOfDay accepts "15:04", "15:04:05" and "15.04"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05", "15.04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return TimeOfDay{}, shared.NewFieldError("INVALID_TIME", "time", "Time must be in HH:MM format")
}

// TimeOfDayOf returns the clock part of t
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// String formats as "15:04:05", the SQL TIME literal
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Dotted formats as "15.04"
func (t TimeOfDay) Dotted() string {
	return fmt.Sprintf("%02d.%02d", t.Hour, t.Minute)
}

// On combines the time of day with the calendar day of date
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, date.Location())
}
