package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"cabinbook/internal/metrics"

	"github.com/rs/zerolog"
)

// Config configures the HTTP listener.
type Config struct {
	Addr   string
	APIKey string // empty disables the x-api-key check
}

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// HTTPServer exposes the booking gateway over JSON.
type HTTPServer struct {
	gateway Gateway
	apiKey  string
	log     zerolog.Logger
	server  *http.Server

	mu     sync.RWMutex
	checks map[string]ReadinessCheck
}

// NewHTTPServer builds the server and its routes.
func NewHTTPServer(cfg Config, gateway Gateway, logger zerolog.Logger) *HTTPServer {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	s := &HTTPServer{
		gateway: gateway,
		apiKey:  cfg.APIKey,
		log:     logger,
		checks:  make(map[string]ReadinessCheck),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.Handle("/api/slots", s.auth(http.HandlerFunc(s.handleSlots)))
	mux.Handle("/api/cabins/{cabinID}/availability", s.auth(http.HandlerFunc(s.handleCabinAvailability)))
	mux.Handle("/api/bookings", s.auth(http.HandlerFunc(s.handleCreateBooking)))
	mux.Handle("/api/bookings/{id}", s.auth(http.HandlerFunc(s.handleGetBooking)))
	mux.Handle("/api/bookings/{id}/cancel", s.auth(http.HandlerFunc(s.handleCancelBooking)))
	mux.Handle("/api/users/{userID}/bookings", s.auth(http.HandlerFunc(s.handleUserBookings)))
	mux.Handle("/api/users/{userID}/bookings.xlsx", s.auth(http.HandlerFunc(s.handleUserBookingsExport)))
	mux.Handle("/api/working-hours", s.auth(http.HandlerFunc(s.handleWorkingHours)))

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// AddReadinessCheck registers a dependency probed by /readyz.
func (s *HTTPServer) AddReadinessCheck(name string, check ReadinessCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Handler returns the routed handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("http api listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("http api stopped")
	return nil
}

func (s *HTTPServer) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			key := r.Header.Get("x-api-key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("healthz")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("readyz")

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := make(map[string]string, len(names))
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()

		if err := check(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			result[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": result})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
