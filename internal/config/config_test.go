package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cabinbook/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
webhook:
  url: ${CABINBOOK_TEST_WEBHOOK}
  api_key: secret
  rate_per_second: 5
  burst: 10
  cache_ttl_seconds: 30
store:
  driver: sqlite
  path: /tmp/cabinbook-test.db
timezone: Europe/Berlin
working_hours:
  saturday: {start: "10:00", end: "15:00"}
  Sunday: {start: "11:00", end: "13:00"}
backup:
  enabled: true
  retention_days: 7
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("CABINBOOK_TEST_WEBHOOK", "https://hooks.example.com/booking")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://hooks.example.com/booking", cfg.Webhook.URL)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "data/backups", cfg.Backup.Path)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.Equal(t, schedule.MustClock("10:00"), cal.For(schedule.Saturday).Start)
	assert.Equal(t, schedule.MustClock("13:00"), cal.For(schedule.Sunday).End)
	assert.Equal(t, schedule.DefaultCalendar().For(schedule.Monday), cal.For(schedule.Monday))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "missing webhook", yaml: "store: {driver: memory}", wantErr: "webhook.url is required"},
		{name: "unknown driver", yaml: "webhook: {url: \"http://x\"}\nstore: {driver: mongo}", wantErr: "unknown driver"},
		{name: "postgres without dsn", yaml: "webhook: {url: \"http://x\"}\nstore: {driver: postgres}", wantErr: "store.dsn"},
		{name: "bad timezone", yaml: "webhook: {url: \"http://x\"}\ntimezone: Mars/Olympus", wantErr: "timezone"},
		{
			name:    "unknown day",
			yaml:    "webhook: {url: \"http://x\"}\nworking_hours:\n  funday: {start: \"09:00\", end: \"10:00\"}",
			wantErr: "unknown day",
		},
		{
			name:    "inverted hours",
			yaml:    "webhook: {url: \"http://x\"}\nworking_hours:\n  monday: {start: \"18:00\", end: \"09:00\"}",
			wantErr: "must be after start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestParse_BadClock(t *testing.T) {
	_, err := Parse([]byte("working_hours:\n  monday: {start: \"9am\", end: \"10:00\"}"))
	assert.Error(t, err)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultPath, PathFromEnv())

	t.Setenv(EnvConfigPath, "/etc/cabinbook.yaml")
	assert.Equal(t, "/etc/cabinbook.yaml", PathFromEnv())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CABINBOOK_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("CABINBOOK_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("CABINBOOK_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("CABINBOOK_TEST_DOTENV"))
}

func TestWatchWorkingHours(t *testing.T) {
	path := writeConfig(t, "webhook: {url: \"http://x\"}\nworking_hours:\n  monday: {start: \"10:00\", end: \"12:00\"}\n")

	var (
		mu      sync.Mutex
		updates []schedule.Calendar
	)
	onUpdate := func(cal schedule.Calendar) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, cal)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, WatchWorkingHours(ctx, path, 10*time.Millisecond, onUpdate))

	mu.Lock()
	require.Len(t, updates, 1)
	assert.Equal(t, schedule.MustClock("12:00"), updates[0].For(schedule.Monday).End)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path,
		[]byte("webhook: {url: \"http://x\"}\nworking_hours:\n  monday: {start: \"08:00\", end: \"18:00\"}\n"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) == 2 && updates[1].For(schedule.Monday).Start == schedule.MustClock("08:00")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchWorkingHours_InitialLoadFails(t *testing.T) {
	path := writeConfig(t, "working_hours:\n  monday: {start: \"18:00\", end: \"09:00\"}\n")
	err := WatchWorkingHours(context.Background(), path, time.Second, nil)
	assert.Error(t, err)
}
