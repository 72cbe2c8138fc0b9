package slots

import (
	"reflect"
	"testing"
	"time"
)

func event(start string) BookedEvent {
	return BookedEvent{Start: EventTime{DateTime: start}}
}

func TestFilter(t *testing.T) {
	candidates := []string{"09:00", "09:15", "09:30"}

	tests := []struct {
		name     string
		booked   []BookedEvent
		expected []bool
	}{
		{
			name:     "no bookings",
			booked:   nil,
			expected: []bool{true, true, true},
		},
		{
			name:     "exact match",
			booked:   []BookedEvent{event("2024-01-08T09:15:00Z")},
			expected: []bool{true, false, true},
		},
		{
			name:     "seconds are truncated",
			booked:   []BookedEvent{event("2024-01-08T09:30:45Z")},
			expected: []bool{true, true, false},
		},
		{
			name:     "unaligned start does not block overlapped slot",
			booked:   []BookedEvent{event("2024-01-08T09:05:00Z")},
			expected: []bool{true, true, true},
		},
		{
			name:     "unparsable start ignored",
			booked:   []BookedEvent{event("tomorrow"), event("")},
			expected: []bool{true, true, true},
		},
		{
			name:     "no offset read as local wall clock",
			booked:   []BookedEvent{event("2024-01-08T09:00:00")},
			expected: []bool{false, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(candidates, tt.booked, time.UTC)

			if len(got) != len(candidates) {
				t.Fatalf("expected %d slots, got %d", len(candidates), len(got))
			}
			for i, s := range got {
				if s.Time != candidates[i] {
					t.Errorf("slot %d: time %s, want %s", i, s.Time, candidates[i])
				}
				if s.Available != tt.expected[i] {
					t.Errorf("slot %s: available=%v, want %v", s.Time, s.Available, tt.expected[i])
				}
			}
		})
	}
}

func TestFilter_NormalizesOffsetToLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	candidates := []string{"09:00", "09:15", "11:15"}

	// 09:15 UTC is 11:15 in UTC+2.
	got := Filter(candidates, []BookedEvent{event("2024-01-08T09:15:00Z")}, loc)

	want := []TimeSlot{
		{Time: "09:00", Available: true},
		{Time: "09:15", Available: true},
		{Time: "11:15", Available: false},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	candidates := []string{"09:00", "09:15", "09:30"}
	booked := []BookedEvent{event("2024-01-08T09:15:00Z")}

	first := Filter(candidates, booked, time.UTC)
	second := Filter(candidates, booked, time.UTC)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}

func TestAvailableOnly(t *testing.T) {
	in := []TimeSlot{
		{Time: "09:00", Available: false},
		{Time: "09:15", Available: true},
		{Time: "09:30", Available: true},
	}

	got := AvailableOnly(in)
	if len(got) != 2 || got[0].Time != "09:15" {
		t.Errorf("unexpected result: %v", got)
	}

	first, ok := FirstAvailable(in)
	if !ok || first.Time != "09:15" {
		t.Errorf("first available = %v (ok=%v), want 09:15", first, ok)
	}

	if _, ok := FirstAvailable(nil); ok {
		t.Error("expected no slot for empty input")
	}
}
