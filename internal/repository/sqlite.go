package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cabinbook/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// timestampLayout stores timestamps as ISO-8601 text with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SQLiteStore keeps bookings in a local sqlite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zerolog.Logger
}

// NewSQLiteStore opens the database at path and creates the schema.
func NewSQLiteStore(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = "data/cabinbook.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("path", path).Msg("sqlite store initialized")
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			cabin_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_cabin_date ON bookings(cabin_id, date)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 60 {
		return q[:60] + "..."
	}
	return q
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Insert(ctx context.Context, b *models.Booking) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, cabin_id, user_id, date, time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, b.CabinID, b.UserID, b.Date, b.Time, string(b.Status),
		b.CreatedAt.UTC().Format(timestampLayout), b.UpdatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert booking: %w", err)
	}
	b.ID = id
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, cabin_id, user_id, date, time, status, created_at, updated_at
		FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cabin_id, user_id, date, time, status, created_at, updated_at
		FROM bookings WHERE user_id = ?
		ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	result := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		string(status), updatedAt.UTC().Format(timestampLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BackupTo writes a consistent copy of the database to dest, which must not exist.
func (s *SQLiteStore) BackupTo(ctx context.Context, dest string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var status, createdAt, updatedAt string
	if err := row.Scan(&b.ID, &b.CabinID, &b.UserID, &b.Date, &b.Time, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.Status = models.Status(status)

	var err error
	if b.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &b, nil
}
