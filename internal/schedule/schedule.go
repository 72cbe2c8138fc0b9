package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownDay is returned when a weekday name is not one of the seven days.
var ErrUnknownDay = errors.New("unknown day")

// Weekday is a day of the week, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists all days in calendar order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Valid reports whether d is one of the seven days.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	// Go's weekday (0=Sun) to ours (0=Mon, 6=Sun)
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseWeekday parses a lowercase English day name ("monday").
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDay, s)
}

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock is ParseClock for constants.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant at c on the given date, in the date's location.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location())
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Hours is the open/close range of a day. End is exclusive.
type Hours struct {
	Start ClockTime `json:"start" yaml:"start"`
	End   ClockTime `json:"end" yaml:"end"`
}

// Validate checks Start < End.
func (h Hours) Validate() error {
	if h.End <= h.Start {
		return fmt.Errorf("end %s must be after start %s", h.End, h.Start)
	}
	return nil
}

// Duration returns the length of the working day.
func (h Hours) Duration() time.Duration {
	return time.Duration(h.End-h.Start) * time.Minute
}

// Calendar maps every weekday to its working hours.
type Calendar struct {
	days [7]Hours
}

// DefaultCalendar returns the built-in weekly table.
func DefaultCalendar() Calendar {
	weekday := Hours{Start: MustClock("09:00"), End: MustClock("20:00")}
	return Calendar{days: [7]Hours{
		Monday:    weekday,
		Tuesday:   weekday,
		Wednesday: weekday,
		Thursday:  weekday,
		Friday:    weekday,
		Saturday:  {Start: MustClock("09:00"), End: MustClock("16:00")},
		Sunday:    {Start: MustClock("09:00"), End: MustClock("14:00")},
	}}
}

// NewCalendar builds a calendar from a complete day table.
func NewCalendar(days map[Weekday]Hours) (Calendar, error) {
	var cal Calendar
	for _, d := range Weekdays {
		h, ok := days[d]
		if !ok {
			return Calendar{}, fmt.Errorf("%s: working hours are required", d)
		}
		if err := h.Validate(); err != nil {
			return Calendar{}, fmt.Errorf("%s: %w", d, err)
		}
		cal.days[d] = h
	}
	return cal, nil
}

// Merge returns a copy of c with the given days replaced.
func (c Calendar) Merge(overrides map[Weekday]Hours) (Calendar, error) {
	days := c.Table()
	for d, h := range overrides {
		if !d.Valid() {
			return Calendar{}, fmt.Errorf("%w: %d", ErrUnknownDay, int(d))
		}
		days[d] = h
	}
	return NewCalendar(days)
}

// For returns the hours of a weekday.
func (c Calendar) For(d Weekday) Hours {
	return c.days[d]
}

// ForDate returns the hours of the weekday of date.
func (c Calendar) ForDate(date time.Time) Hours {
	return c.days[WeekdayOf(date)]
}

// IsOpenAt reports whether t falls within its day's working hours.
func (c Calendar) IsOpenAt(t time.Time) bool {
	h := c.ForDate(t)
	at := ClockTime(t.Hour()*60 + t.Minute())
	return at >= h.Start && at < h.End
}

// Table returns the calendar as a map keyed by weekday.
func (c Calendar) Table() map[Weekday]Hours {
	out := make(map[Weekday]Hours, len(c.days))
	for _, d := range Weekdays {
		out[d] = c.days[d]
	}
	return out
}

// Named returns the calendar keyed by lowercase day name, for display and JSON.
func (c Calendar) Named() map[string]Hours {
	out := make(map[string]Hours, len(c.days))
	for _, d := range Weekdays {
		out[d.String()] = c.days[d]
	}
	return out
}
