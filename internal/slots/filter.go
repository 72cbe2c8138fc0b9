package slots

import (
	"time"
)

// TimeSlot is one slot of the day grid.
type TimeSlot struct {
	Time      string `json:"time"` // "10:15"
	Available bool   `json:"available"`
}

// EventTime is the start/end object of an endpoint event.
type EventTime struct {
	DateTime string `json:"dateTime"`
}

// BookedEvent is a reservation reported by the automation endpoint.
// Only the start is used for matching.
type BookedEvent struct {
	Start EventTime `json:"start"`
}

// localLayouts are accepted for event starts without an offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// StartTime parses the event start and converts it to loc.
// Starts without a UTC offset are read as wall-clock time in loc.
func (e BookedEvent) StartTime(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, e.Start.DateTime); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, e.Start.DateTime, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filter marks each candidate slot as available unless a booked event starts exactly at it.
// Event starts are truncated to the minute in loc before comparison. This is a membership
// test, not an overlap test: a booking starting at 09:05 leaves 09:00 available.
// Events with an unparsable start are ignored. Order and length of candidates are preserved.
func Filter(candidates []string, booked []BookedEvent, loc *time.Location) []TimeSlot {
	taken := make(map[string]struct{}, len(booked))
	for _, ev := range booked {
		start, ok := ev.StartTime(loc)
		if !ok {
			continue
		}
		taken[start.Format(TimeLayout)] = struct{}{}
	}

	result := make([]TimeSlot, len(candidates))
	for i, c := range candidates {
		_, isTaken := taken[c]
		result[i] = TimeSlot{Time: c, Available: !isTaken}
	}
	return result
}

// AvailableOnly returns only available slots.
func AvailableOnly(slots []TimeSlot) []TimeSlot {
	available := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}

// FirstAvailable returns the earliest available slot.
func FirstAvailable(slots []TimeSlot) (TimeSlot, bool) {
	for _, s := range slots {
		if s.Available {
			return s, true
		}
	}
	return TimeSlot{}, false
}
