package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiffinflow_deliveries_total",
			Help: "Inbound webhook deliveries by classified kind.",
		},
		[]string{"kind"},
	)

	storeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiffinflow_store_requests_total",
			Help: "Menu store lookups by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiffinflow_messages_sent_total",
			Help: "Outbound WhatsApp messages by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tiffinflow_dispatch_duration_seconds",
			Help:    "Time spent handling one delivery in the background.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"kind"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			deliveriesTotal, storeRequestsTotal,
			messagesSentTotal, dispatchDuration,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func IncDelivery(kind string) {
	deliveriesTotal.WithLabelValues(norm(kind)).Inc()
}

func ObserveStore(op string, err error) {
	storeRequestsTotal.WithLabelValues(norm(op), outcome(err)).Inc()
}

func ObserveSend(msgType string, err error) {
	messagesSentTotal.WithLabelValues(norm(msgType), outcome(err)).Inc()
}

// TrackDispatch returns a func that records the elapsed time when called.
// Usage: defer metrics.TrackDispatch("list_reply")()
func TrackDispatch(kind string) func() {
	start := time.Now()
	return func() {
		dispatchDuration.WithLabelValues(norm(kind)).Observe(time.Since(start).Seconds())
	}
}
