package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cabinbook/internal/api"
	"cabinbook/internal/config"
	"cabinbook/internal/database"
	"cabinbook/internal/events"
	"cabinbook/internal/metrics"
	"cabinbook/internal/repository"
	"cabinbook/internal/schedule"
	"cabinbook/internal/service"
	"cabinbook/internal/webhook"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		memory        bool
		watchInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booking HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := opts.load()
			if err != nil {
				return err
			}
			if memory {
				cfg.Store.Driver = repository.DriverMemory
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := newLogger(cfg.Log, os.Stdout)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, path, watchInterval, &logger)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "keep bookings in memory instead of the configured store")
	cmd.Flags().DurationVar(&watchInterval, "watch-interval", 30*time.Second, "how often the config file is checked for working-hours changes")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, configPath string, watchInterval time.Duration, logger *zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}

	store, err := repository.Open(ctx, repository.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	}, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client, err := webhook.NewClient(webhook.Config{
		URL:           cfg.Webhook.URL,
		APIKey:        cfg.Webhook.APIKey,
		Timeout:       cfg.WebhookTimeout(),
		RatePerSecond: cfg.Webhook.RatePerSecond,
		Burst:         cfg.Webhook.Burst,
	})
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewEventBus()
	metrics.Register()
	metrics.SubscribeBookingEvents(bus)

	gateway := service.NewGateway(store, client, bus, cal, loc, logger)

	err = config.WatchWorkingHours(ctx, configPath, watchInterval, func(c schedule.Calendar) {
		gateway.SetCalendar(c)
		logger.Info().Msg("working hours reloaded")
	})
	if err != nil {
		logger.Warn().Err(err).Msg("working hours watcher not started")
	}

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	if sqlite, ok := store.(*repository.SQLiteStore); ok && cfg.Backup.Enabled {
		go database.NewBackupService(sqlite, cfg.Backup, logger).Start(ctx)
	}

	server := api.NewHTTPServer(api.Config{Addr: cfg.HTTP.Addr, APIKey: cfg.HTTP.APIKey}, gateway, *logger)
	server.AddReadinessCheck("store", store.Ping)
	if rdb != nil {
		server.AddReadinessCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	logger.Info().
		Str("store", cfg.Store.Driver).
		Str("timezone", loc.String()).
		Msg("cabinbook started")
	return server.Start(ctx)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
