package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"cabinbook/internal/events"
	"cabinbook/internal/models"
	"cabinbook/internal/repository"
	"cabinbook/internal/schedule"
	"cabinbook/internal/slots"

	"github.com/rs/zerolog"
)

// Notifier is the automation endpoint as seen by the gateway.
type Notifier interface {
	BookedEvents(ctx context.Context, date string) ([]slots.BookedEvent, error)
	CheckAvailability(ctx context.Context, cabinID, date string) (json.RawMessage, error)
	NotifyNewBooking(ctx context.Context, b models.Booking) error
	NotifyCancellation(ctx context.Context, bookingID string) error
	Invalidate(ctx context.Context, date string)
}

// EventPublisher receives domain events after successful mutations.
type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

type clock func() time.Time

// Gateway orchestrates slot queries and booking mutations.
type Gateway struct {
	store    repository.BookingStore
	notifier Notifier
	events   EventPublisher
	calendar atomic.Pointer[schedule.Calendar]
	loc      *time.Location
	now      atomic.Pointer[clock]
	logger   *zerolog.Logger
}

// NewGateway wires a gateway. loc is the local time basis of slots and dates.
func NewGateway(
	store repository.BookingStore,
	notifier Notifier,
	publisher EventPublisher,
	cal schedule.Calendar,
	loc *time.Location,
	logger *zerolog.Logger,
) *Gateway {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	g := &Gateway{
		store:    store,
		notifier: notifier,
		events:   publisher,
		loc:      loc,
		logger:   logger,
	}
	g.calendar.Store(&cal)
	g.SetClock(time.Now)
	return g
}

// SetClock replaces the time source.
func (g *Gateway) SetClock(now func() time.Time) {
	c := clock(now)
	g.now.Store(&c)
}

func (g *Gateway) timeNow() time.Time {
	return (*g.now.Load())()
}

// SetCalendar swaps the working-hours table used for new slot queries.
func (g *Gateway) SetCalendar(cal schedule.Calendar) {
	g.calendar.Store(&cal)
}

// Calendar returns the working-hours table in use.
func (g *Gateway) Calendar() schedule.Calendar {
	return *g.calendar.Load()
}

// Location returns the time basis of slots.
func (g *Gateway) Location() *time.Location {
	return g.loc
}

// Today returns the current date (YYYY-MM-DD) in the gateway location.
func (g *Gateway) Today() string {
	return g.timeNow().In(g.loc).Format(slots.DateLayout)
}

// FetchAvailableTimeSlots returns the slot grid of date with each slot marked free or taken.
func (g *Gateway) FetchAvailableTimeSlots(ctx context.Context, date string) ([]slots.TimeSlot, error) {
	const op = "fetch time slots"

	day, err := slots.ParseDate(date, g.loc)
	if err != nil {
		return nil, g.fail(op, newError(op, KindInvalid, err), zerolog.Dict().Str("date", date))
	}

	booked, err := g.notifier.BookedEvents(ctx, date)
	if err != nil {
		return nil, g.fail(op, newError(op, KindUpstreamUnavailable, err), zerolog.Dict().Str("date", date))
	}

	candidates := slots.Generate(g.Calendar(), day)
	return slots.Filter(candidates, booked, g.loc), nil
}

// CheckCabinAvailability forwards an availability check for a cabin. An empty date means today.
// The endpoint's answer is returned uninterpreted.
func (g *Gateway) CheckCabinAvailability(ctx context.Context, cabinID, date string) (json.RawMessage, error) {
	const op = "check cabin availability"

	if date == "" {
		date = g.Today()
	}
	fields := zerolog.Dict().Str("cabin_id", cabinID).Str("date", date)

	if cabinID == "" {
		return nil, g.fail(op, newError(op, KindInvalid, errors.New("cabinId is required")), fields)
	}
	if _, err := slots.ParseDate(date, g.loc); err != nil {
		return nil, g.fail(op, newError(op, KindInvalid, err), fields)
	}

	payload, err := g.notifier.CheckAvailability(ctx, cabinID, date)
	if err != nil {
		return nil, g.fail(op, newError(op, KindUpstreamUnavailable, err), fields)
	}
	return payload, nil
}

// CreateBooking stores a confirmed booking, then notifies the endpoint.
// A notification failure is returned with Applied set: the booking exists.
func (g *Gateway) CreateBooking(ctx context.Context, req models.NewBookingRequest) (string, error) {
	const op = "create booking"

	if err := req.Validate(); err != nil {
		return "", g.fail(op, newError(op, KindInvalid, err), zerolog.Dict().Str("user_id", req.UserID))
	}

	now := models.Stamp(g.timeNow())
	b := models.Booking{
		CabinID:   req.CabinID,
		UserID:    req.UserID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields := zerolog.Dict().Str("cabin_id", b.CabinID).Str("user_id", b.UserID).Str("date", b.Date).Str("time", b.Time)

	id, err := g.store.Insert(ctx, &b)
	if err != nil {
		return "", g.fail(op, newError(op, KindStore, err), fields)
	}
	b.ID = id

	// drop cached slots only once the endpoint has seen the change, so a
	// concurrent query cannot re-cache the old state
	err = g.notifier.NotifyNewBooking(ctx, b)
	g.notifier.Invalidate(ctx, b.Date)
	if err != nil {
		return "", g.fail(op, appliedError(op, id, err), fields.Str("booking_id", id))
	}

	g.publish(events.TypeBookingCreated, b)
	g.logger.Info().Str("booking_id", id).Str("cabin_id", b.CabinID).Str("date", b.Date).Str("time", b.Time).
		Msg("booking created")
	return id, nil
}

// ListBookingsForUser returns all bookings of userID in store order.
func (g *Gateway) ListBookingsForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	const op = "list user bookings"

	if userID == "" {
		return nil, g.fail(op, newError(op, KindInvalid, errors.New("userId is required")), zerolog.Dict())
	}

	list, err := g.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, g.fail(op, newError(op, KindStore, err), zerolog.Dict().Str("user_id", userID))
	}
	return list, nil
}

// GetBooking returns a single booking.
func (g *Gateway) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "get booking"

	b, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, g.fail(op, g.storeError(op, err), zerolog.Dict().Str("booking_id", id))
	}
	return b, nil
}

// CancelBooking marks a booking cancelled, then notifies the endpoint.
// A notification failure is returned with Applied set: the booking is cancelled.
func (g *Gateway) CancelBooking(ctx context.Context, id string) error {
	const op = "cancel booking"
	fields := zerolog.Dict().Str("booking_id", id)

	b, err := g.store.Get(ctx, id)
	if err != nil {
		return g.fail(op, g.storeError(op, err), fields)
	}

	updatedAt := models.Stamp(g.timeNow())
	if !updatedAt.After(b.CreatedAt) {
		// keep updatedAt strictly after createdAt on coarse or skewed clocks
		updatedAt = b.CreatedAt.Add(time.Millisecond)
	}

	if err := g.store.UpdateStatus(ctx, id, models.StatusCancelled, updatedAt); err != nil {
		return g.fail(op, g.storeError(op, err), fields)
	}

	err = g.notifier.NotifyCancellation(ctx, id)
	g.notifier.Invalidate(ctx, b.Date)
	if err != nil {
		return g.fail(op, appliedError(op, id, err), fields)
	}

	b.Status = models.StatusCancelled
	b.UpdatedAt = updatedAt
	g.publish(events.TypeBookingCancelled, *b)
	g.logger.Info().Str("booking_id", id).Msg("booking cancelled")
	return nil
}

func (g *Gateway) storeError(op string, err error) *Error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(op, KindNotFound, err)
	}
	return newError(op, KindStore, err)
}

func (g *Gateway) fail(op string, err *Error, fields *zerolog.Event) error {
	g.logger.Error().Err(err.Err).
		Str("op", op).
		Str("kind", string(err.Kind)).
		Bool("applied", err.Applied).
		Dict("ctx", fields).
		Msg("booking gateway operation failed")
	return err
}

func (g *Gateway) publish(eventType string, b models.Booking) {
	if g.events == nil {
		return
	}
	if err := g.events.PublishJSON(eventType, b); err != nil {
		g.logger.Warn().Err(err).Str("event", eventType).Str("booking_id", b.ID).Msg("event handler failed")
	}
}
