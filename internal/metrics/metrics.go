package metrics

import (
	"sync"

	"cabinbook/internal/events"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cabinbook",
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cabinbook",
			Name:      "bookings_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cabinbook",
			Name:      "webhook_requests_total",
			Help:      "Count of calls to the automation endpoint by request kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cabinbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route.",
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, webhookRequests, httpRequests)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

// IncWebhook counts an endpoint call; outcome is "ok", "http_error" or "transport_error".
func IncWebhook(kind, outcome string) {
	webhookRequests.WithLabelValues(kind, outcome).Inc()
}

func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}

// SubscribeBookingEvents counts booking mutations published on bus.
func SubscribeBookingEvents(bus *events.EventBus) {
	bus.Subscribe(events.TypeBookingCreated, func(events.Event) error {
		IncBookingCreated()
		return nil
	})
	bus.Subscribe(events.TypeBookingCancelled, func(events.Event) error {
		IncBookingCancelled()
		return nil
	})
}
