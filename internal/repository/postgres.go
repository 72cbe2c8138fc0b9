package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cabinbook/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bookings (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT UNIQUE NOT NULL,
	cabin_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'confirmed',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_cabin_date ON bookings(cabin_id, date);
`

// PostgresStore keeps bookings in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

// NewPostgresStore connects to dsn and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string, logger *zerolog.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if logger != nil {
		logger.Info().Msg("postgres store initialized")
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, b *models.Booking) (string, error) {
	id := newID()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (id, cabin_id, user_id, date, time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, b.CabinID, b.UserID, b.Date, b.Time, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert booking: %w", err)
	}
	b.ID = id
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, cabin_id, user_id, date, time, status, created_at, updated_at
		FROM bookings WHERE id = $1`, id)

	b, err := scanPgBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, cabin_id, user_id, date, time, status, created_at, updated_at
		FROM bookings WHERE user_id = $1
		ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	result := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanPgBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3",
		string(status), updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var status string
	if err := row.Scan(&b.ID, &b.CabinID, &b.UserID, &b.Date, &b.Time, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = models.Status(status)
	b.CreatedAt = models.Stamp(b.CreatedAt)
	b.UpdatedAt = models.Stamp(b.UpdatedAt)
	return &b, nil
}
