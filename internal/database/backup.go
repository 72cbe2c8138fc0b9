package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cabinbook/internal/config"

	"github.com/rs/zerolog"
)

const backupPrefix = "cabinbook_"

// Snapshotter writes a consistent copy of a database to a file.
type Snapshotter interface {
	BackupTo(ctx context.Context, dest string) error
}

// BackupService periodically snapshots the sqlite store and prunes old copies.
type BackupService struct {
	source Snapshotter
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(source Snapshotter, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		source: source,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs a backup immediately and then every configured interval until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return
	}

	interval := time.Duration(s.config.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	s.logger.Info().Dur("interval", interval).Str("path", s.config.Path).Msg("backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
	}
	if _, err := s.CleanupOldBackups(); err != nil {
		s.logger.Error().Err(err).Msg("backup cleanup failed")
	}
}

// PerformBackup writes a new snapshot and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.Path, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s.db", backupPrefix, s.now().UTC().Format("20060102_150405"))
	dest := filepath.Join(s.config.Path, name)

	s.logger.Info().Str("path", dest).Msg("performing database backup")
	if err := s.source.BackupTo(ctx, dest); err != nil {
		return "", err
	}
	s.logger.Info().Str("path", dest).Msg("backup completed")
	return dest, nil
}

// CleanupOldBackups removes snapshots older than the retention period and returns how many were removed.
func (s *BackupService) CleanupOldBackups() (int, error) {
	if s.config.RetentionDays <= 0 {
		return 0, nil
	}

	files, err := os.ReadDir(s.config.Path)
	if err != nil {
		return 0, fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), backupPrefix) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		s.logger.Info().Str("file", file.Name()).Msg("deleting old backup")
		if err := os.Remove(filepath.Join(s.config.Path, file.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", file.Name()).Msg("failed to delete old backup")
			continue
		}
		removed++
	}
	return removed, nil
}
