package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cabinbook/internal/metrics"
	"cabinbook/internal/models"
	"cabinbook/internal/slots"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Request kinds, also used as metric labels.
const (
	KindSlotQuery         = "slot_query"
	KindAvailabilityCheck = "availability_check"
	KindNewBooking        = "new_booking"
	KindCancelBooking     = "cancel_booking"
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Kind       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook %s: http %d", e.Kind, e.StatusCode)
}

// Config configures the endpoint client.
type Config struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64 // 0 disables limiting
	Burst         int
}

// Client posts JSON requests to the automation endpoint.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for cfg.URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c, nil
}

// UseRedisCache enables caching of booked events per date.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

type slotQuery struct {
	Date string `json:"date"`
}

type slotQueryResponse struct {
	Items []slots.BookedEvent `json:"items"`
}

// BookedEvents returns the reservations the endpoint knows for date (YYYY-MM-DD).
func (c *Client) BookedEvents(ctx context.Context, date string) ([]slots.BookedEvent, error) {
	cacheKey := bookedCacheKey(date)
	var resp slotQueryResponse

	if c.readCache(ctx, cacheKey, &resp) {
		return resp.Items, nil
	}

	if err := c.post(ctx, KindSlotQuery, slotQuery{Date: date}, true, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = []slots.BookedEvent{}
	}
	c.writeCache(ctx, cacheKey, resp)
	return resp.Items, nil
}

type availabilityCheck struct {
	CabinID string `json:"cabinId"`
	Date    string `json:"date"`
	Type    string `json:"type"`
}

// CheckAvailability forwards an availability check and returns the endpoint's raw answer.
func (c *Client) CheckAvailability(ctx context.Context, cabinID, date string) (json.RawMessage, error) {
	var raw json.RawMessage
	req := availabilityCheck{CabinID: cabinID, Date: date, Type: KindAvailabilityCheck}
	if err := c.post(ctx, KindAvailabilityCheck, req, true, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type bookingPayload struct {
	ID      string        `json:"id"`
	CabinID string        `json:"cabinId"`
	UserID  string        `json:"userId"`
	Date    string        `json:"date"`
	Time    string        `json:"time"`
	Status  models.Status `json:"status"`
}

type newBookingNotice struct {
	Type    string         `json:"type"`
	Booking bookingPayload `json:"booking"`
}

// NotifyNewBooking tells the endpoint about a stored booking. The response is ignored.
func (c *Client) NotifyNewBooking(ctx context.Context, b models.Booking) error {
	notice := newBookingNotice{
		Type: KindNewBooking,
		Booking: bookingPayload{
			ID:      b.ID,
			CabinID: b.CabinID,
			UserID:  b.UserID,
			Date:    b.Date,
			Time:    b.Time,
			Status:  b.Status,
		},
	}
	return c.post(ctx, KindNewBooking, notice, false, nil)
}

type cancelNotice struct {
	Type      string `json:"type"`
	BookingID string `json:"bookingId"`
}

// NotifyCancellation tells the endpoint a booking was cancelled. The response is ignored.
func (c *Client) NotifyCancellation(ctx context.Context, bookingID string) error {
	return c.post(ctx, KindCancelBooking, cancelNotice{Type: KindCancelBooking, BookingID: bookingID}, false, nil)
}

// Invalidate drops cached booked events for date.
func (c *Client) Invalidate(ctx context.Context, date string) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	_ = c.redis.Del(ctx, bookedCacheKey(date)).Err()
}

func bookedCacheKey(date string) string {
	return "cabinbook:booked:" + date
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

// post sends body as JSON. With checkStatus, non-2xx answers become *StatusError;
// with out != nil, the response body is decoded into it.
func (c *Client) post(ctx context.Context, kind string, body any, checkStatus bool, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("webhook %s: rate limit: %w", kind, err)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("webhook %s: encode: %w", kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("webhook %s: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncWebhook(kind, "transport_error")
		return fmt.Errorf("webhook %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if checkStatus && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		metrics.IncWebhook(kind, "http_error")
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Kind: kind, StatusCode: resp.StatusCode}
	}
	metrics.IncWebhook(kind, "ok")

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("webhook %s: decode response: %w", kind, err)
	}
	return nil
}
