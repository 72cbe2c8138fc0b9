package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cabinbook/internal/events"
	"cabinbook/internal/repository"
	"cabinbook/internal/schedule"
	"cabinbook/internal/slots"
	"cabinbook/internal/webhook"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bookingEndpoint keeps reserved starts per date. While handling a notice it runs
// onNotice before applying the change, like a slow automation flow.
type bookingEndpoint struct {
	mu       sync.Mutex
	reserved map[string]string // booking id -> dateTime
	onNotice func(date string)
}

func (e *bookingEndpoint) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type      string `json:"type"`
			Date      string `json:"date"`
			BookingID string `json:"bookingId"`
			Booking   struct {
				ID   string `json:"id"`
				Date string `json:"date"`
				Time string `json:"time"`
			} `json:"booking"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch req.Type {
		case webhook.KindNewBooking:
			if e.onNotice != nil {
				e.onNotice(req.Booking.Date)
			}
			e.mu.Lock()
			e.reserved[req.Booking.ID] = req.Booking.Date + "T" + req.Booking.Time + ":00Z"
			e.mu.Unlock()
		case webhook.KindCancelBooking:
			e.mu.Lock()
			start := e.reserved[req.BookingID]
			e.mu.Unlock()
			if e.onNotice != nil && len(start) >= 10 {
				e.onNotice(start[:10])
			}
			e.mu.Lock()
			delete(e.reserved, req.BookingID)
			e.mu.Unlock()
		default:
			e.mu.Lock()
			items := make([]slots.BookedEvent, 0, len(e.reserved))
			for _, start := range e.reserved {
				if start[:10] == req.Date {
					items = append(items, slots.BookedEvent{Start: slots.EventTime{DateTime: start}})
				}
			}
			e.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		}
	}
}

func newCachedGateway(t *testing.T) (*Gateway, *bookingEndpoint, *miniredis.Miniredis) {
	t.Helper()
	endpoint := &bookingEndpoint{reserved: make(map[string]string)}
	srv := httptest.NewServer(endpoint.handler(t))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client, err := webhook.NewClient(webhook.Config{URL: srv.URL})
	require.NoError(t, err)
	client.UseRedisCache(rdb, time.Hour)

	g := NewGateway(repository.NewMemoryStore(), client, events.NewEventBus(),
		schedule.DefaultCalendar(), time.UTC, nil)

	// a slot query racing with the notice reads the endpoint's old state
	endpoint.onNotice = func(date string) {
		_, err := g.FetchAvailableTimeSlots(context.Background(), date)
		assert.NoError(t, err)
	}
	return g, endpoint, mr
}

func slotAvailable(t *testing.T, g *Gateway, date, at string) bool {
	t.Helper()
	grid, err := g.FetchAvailableTimeSlots(context.Background(), date)
	require.NoError(t, err)
	for _, s := range grid {
		if s.Time == at {
			return s.Available
		}
	}
	t.Fatalf("slot %s not in grid", at)
	return false
}

func TestCreateBooking_CachedSlotsSeeNewBooking(t *testing.T) {
	g, _, mr := newCachedGateway(t)
	ctx := context.Background()

	require.True(t, slotAvailable(t, g, "2024-01-08", "09:15"))
	require.True(t, mr.Exists("cabinbook:booked:2024-01-08"))

	_, err := g.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	assert.False(t, slotAvailable(t, g, "2024-01-08", "09:15"))
}

func TestCancelBooking_CachedSlotsSeeCancellation(t *testing.T) {
	g, endpoint, _ := newCachedGateway(t)
	ctx := context.Background()

	onNotice := endpoint.onNotice
	endpoint.onNotice = nil
	id, err := g.CreateBooking(ctx, validRequest())
	require.NoError(t, err)
	require.False(t, slotAvailable(t, g, "2024-01-08", "09:15"))

	endpoint.onNotice = onNotice
	require.NoError(t, g.CancelBooking(ctx, id))

	assert.True(t, slotAvailable(t, g, "2024-01-08", "09:15"))
}

func TestSetClock_Concurrent(t *testing.T) {
	g := NewGateway(repository.NewMemoryStore(), &mockNotifier{}, nil,
		schedule.DefaultCalendar(), time.UTC, nil)
	fixed := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			g.SetClock(func() time.Time { return fixed })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = g.Today()
		}
	}()
	wg.Wait()

	assert.Equal(t, "2024-01-05", g.Today())
}
