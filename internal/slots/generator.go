package slots

import (
	"fmt"
	"time"

	"cabinbook/internal/schedule"
)

// SlotInterval is the fixed width of a slot.
const SlotInterval = 15 * time.Minute

// DateLayout is the calendar date format used across the API.
const DateLayout = "2006-01-02"

// TimeLayout is the "HH:MM" slot label format.
const TimeLayout = "15:04"

// Generate returns the start times ("HH:MM") of every slot on date.
// Slots cover [start, end) of the day's working hours; a trailing partial slot is dropped.
// Labels step over wall-clock minutes, so a daylight-saving change inside working hours
// neither shifts nor repeats them.
func Generate(cal schedule.Calendar, date time.Time) []string {
	hours := cal.ForDate(date)
	step := schedule.ClockTime(SlotInterval / time.Minute)

	out := make([]string, 0, int(hours.Duration()/SlotInterval))
	for at := hours.Start; at+step <= hours.End; at += step {
		out = append(out, at.String())
	}
	return out
}

// GenerateForDay parses day ("YYYY-MM-DD") in loc and generates its slots.
func GenerateForDay(cal schedule.Calendar, day string, loc *time.Location) ([]string, error) {
	date, err := ParseDate(day, loc)
	if err != nil {
		return nil, err
	}
	return Generate(cal, date), nil
}

// ParseDate parses "YYYY-MM-DD" as midnight in loc.
func ParseDate(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(DateLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
	}
	return date, nil
}
