package models

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Booking represents a cabin booking record.
type Booking struct {
	ID        string    `json:"id"`
	CabinID   string    `json:"cabinId"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive returns true for bookings that still hold their slot.
func (b *Booking) IsActive() bool {
	return b.Status == StatusConfirmed
}

// StartsAt returns the booked instant in loc.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
}

// NewBookingRequest carries the caller-supplied fields of a booking.
type NewBookingRequest struct {
	CabinID string `json:"cabinId"`
	UserID  string `json:"userId"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Validate checks required fields and formats.
func (r *NewBookingRequest) Validate() error {
	r.CabinID = strings.TrimSpace(r.CabinID)
	r.UserID = strings.TrimSpace(r.UserID)

	if r.CabinID == "" {
		return errors.New("cabinId is required")
	}
	if r.UserID == "" {
		return errors.New("userId is required")
	}
	if r.Date == "" || r.Time == "" {
		return errors.New("date and time are required")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return errors.New("invalid date format; expected YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return errors.New("invalid time format; expected HH:MM")
	}
	return nil
}

// Stamp returns t in UTC truncated to milliseconds, the precision stored for timestamps.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
