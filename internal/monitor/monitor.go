// internal/monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/jason-s-yu/domino/internal/game"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's prometheus collectors on a private registry.
type Metrics struct {
	OnlineSeats   prometheus.Gauge
	ActiveRooms   prometheus.Gauge
	Intents       *prometheus.CounterVec
	IntentLatency prometheus.Histogram
	Rounds        *prometheus.CounterVec
	Matches       prometheus.Counter

	registry *prometheus.Registry
}

var _ game.Metrics = (*Metrics)(nil)

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlineSeats: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_seats",
			Help:      "Number of connected seats",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of live rooms",
		}),
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Intents handled, by intent and result code",
		}, []string{"intent", "result"}),
		IntentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intent_latency_seconds",
			Help:      "Time spent applying an intent under the room lock",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
		Rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Rounds ended, by reason",
		}, []string{"reason"}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Matches played to the target score",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.OnlineSeats,
		m.ActiveRooms,
		m.Intents,
		m.IntentLatency,
		m.Rounds,
		m.Matches,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IntentHandled(intent string, code string, took time.Duration) {
	if code == "" {
		code = "ok"
	}
	m.Intents.WithLabelValues(intent, code).Inc()
	m.IntentLatency.Observe(took.Seconds())
}

func (m *Metrics) RoundEnded(reason string) {
	m.Rounds.WithLabelValues(reason).Inc()
}

func (m *Metrics) MatchEnded() {
	m.Matches.Inc()
}

func (m *Metrics) SetActiveRooms(n int) {
	m.ActiveRooms.Set(float64(n))
}
