package config

import (
	"context"
	"os"
	"time"

	"cabinbook/internal/schedule"
)

// WatchWorkingHours reloads the working hours of the config file at path when it changes
// and calls onUpdate with the resulting calendar. It performs an initial load before
// entering the watch loop. Invalid edits are skipped and the previous calendar stays in use.
func WatchWorkingHours(ctx context.Context, path string, interval time.Duration, onUpdate func(schedule.Calendar)) error {
	if path == "" {
		path = DefaultPath
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cal, err := loadCalendar(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cal)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				cal, err := loadCalendar(path)
				if err != nil {
					continue
				}
				lastMod = info.ModTime()
				if onUpdate != nil {
					onUpdate(cal)
				}
			}
		}
	}()

	return nil
}

func loadCalendar(path string) (schedule.Calendar, error) {
	cfg, err := Load(path)
	if err != nil {
		return schedule.Calendar{}, err
	}
	return cfg.Calendar()
}
