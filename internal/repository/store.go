package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cabinbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a booking id is unknown to the store.
var ErrNotFound = errors.New("booking not found")

// BookingStore is the persistent `bookings` collection.
type BookingStore interface {
	// Insert stores b and returns the id assigned by the store. b.ID is set as well.
	Insert(ctx context.Context, b *models.Booking) (string, error)

	// Get returns a booking by id or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Booking, error)

	// ListByUser returns all bookings of a user in the store's natural order.
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)

	// UpdateStatus sets status and updatedAt of a booking or returns ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error

	Ping(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and configures a store backend.
type Config struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *zerolog.Logger) (BookingStore, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return NewSQLiteStore(cfg.Path, logger)
	case DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN, logger)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newID() string {
	return uuid.NewString()
}
