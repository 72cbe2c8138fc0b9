package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     NewBookingRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  NewBookingRequest{CabinID: "cabin-1", UserID: "u1", Date: "2024-01-08", Time: "09:15"},
		},
		{
			name:    "missing cabin",
			req:     NewBookingRequest{CabinID: "  ", UserID: "u1", Date: "2024-01-08", Time: "09:15"},
			wantErr: "cabinId is required",
		},
		{
			name:    "missing user",
			req:     NewBookingRequest{CabinID: "cabin-1", Date: "2024-01-08", Time: "09:15"},
			wantErr: "userId is required",
		},
		{
			name:    "missing time",
			req:     NewBookingRequest{CabinID: "cabin-1", UserID: "u1", Date: "2024-01-08"},
			wantErr: "date and time are required",
		},
		{
			name:    "bad date",
			req:     NewBookingRequest{CabinID: "cabin-1", UserID: "u1", Date: "08.01.2024", Time: "09:15"},
			wantErr: "invalid date format; expected YYYY-MM-DD",
		},
		{
			name:    "bad time",
			req:     NewBookingRequest{CabinID: "cabin-1", UserID: "u1", Date: "2024-01-08", Time: "9am"},
			wantErr: "invalid time format; expected HH:MM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestBooking_JSON(t *testing.T) {
	created := time.Date(2024, 1, 8, 8, 0, 0, 123000000, time.UTC)
	b := Booking{
		ID:        "abc",
		CabinID:   "cabin-1",
		UserID:    "u1",
		Date:      "2024-01-08",
		Time:      "09:15",
		Status:    StatusConfirmed,
		CreatedAt: created,
		UpdatedAt: created,
	}

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "cabin-1", raw["cabinId"])
	assert.Equal(t, "u1", raw["userId"])
	assert.Equal(t, "confirmed", raw["status"])
	assert.Equal(t, "2024-01-08T08:00:00.123Z", raw["createdAt"])
}

func TestBooking_StartsAt(t *testing.T) {
	b := Booking{Date: "2024-01-08", Time: "09:15"}
	at, err := b.StartsAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC), at)
	assert.False(t, b.IsActive())

	b.Status = StatusConfirmed
	assert.True(t, b.IsActive())
}

func TestStamp(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	in := time.Date(2024, 1, 8, 12, 0, 0, 123456789, loc)

	got := Stamp(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123000000, got.Nanosecond())
	assert.Equal(t, 9, got.Hour())
}
