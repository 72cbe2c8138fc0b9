package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"cabinbook/internal/schedule"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "CABINBOOK_CONFIG"

const DefaultPath = "configs/config.yaml"

type WebhookConfig struct {
	URL             string  `yaml:"url"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	APIKey          string  `yaml:"api_key"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	Burst           int     `yaml:"burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HTTPConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// WorkingHours maps lowercase weekday names to their hours. Missing days keep the defaults.
type WorkingHours map[string]schedule.Hours

type Config struct {
	Webhook      WebhookConfig    `yaml:"webhook"`
	Store        StoreConfig      `yaml:"store"`
	Redis        RedisConfig      `yaml:"redis"`
	HTTP         HTTPConfig       `yaml:"http"`
	Timezone     string           `yaml:"timezone"`
	WorkingHours WorkingHours     `yaml:"working_hours"`
	Monitoring   MonitoringConfig `yaml:"monitoring"`
	Backup       BackupConfig     `yaml:"backup"`
	Log          LogConfig        `yaml:"log"`
}

// PathFromEnv returns the config path from CABINBOOK_CONFIG or the default.
func PathFromEnv() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads .env files into the environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path, expands ${ENV} placeholders and applies defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data.
func Parse(data []byte) (*Config, error) {
	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Webhook.TimeoutSeconds <= 0 {
		c.Webhook.TimeoutSeconds = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		c.Store.Path = "data/cabinbook.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Webhook.URL == "" {
		return errors.New("webhook.url is required")
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Calendar(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone. Empty means the process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Calendar merges the configured working hours over the default table.
func (c *Config) Calendar() (schedule.Calendar, error) {
	return c.WorkingHours.Calendar()
}

// Calendar merges w over the default table.
func (w WorkingHours) Calendar() (schedule.Calendar, error) {
	overrides := make(map[schedule.Weekday]schedule.Hours, len(w))
	for name, h := range w {
		day, err := schedule.ParseWeekday(name)
		if err != nil {
			return schedule.Calendar{}, fmt.Errorf("working_hours: %w", err)
		}
		overrides[day] = h
	}
	cal, err := schedule.DefaultCalendar().Merge(overrides)
	if err != nil {
		return schedule.Calendar{}, fmt.Errorf("working_hours: %w", err)
	}
	return cal, nil
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Webhook.CacheTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
