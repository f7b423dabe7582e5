package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Metrics holds the session collectors on a private registry so several
// managers (and tests) can coexist in one process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	sessionStatus     *prometheus.GaugeVec
	campaigns         prometheus.Gauge
	identityChanges   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_operations_total",
				Help: "Session operations by name and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "session_operation_duration_seconds",
				Help:    "Session operation latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		sessionStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "session_status",
				Help: "1 for the current session status, 0 otherwise.",
			},
			[]string{"status"},
		),
		campaigns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "session_cached_campaigns",
			Help: "Number of campaigns in the local cache.",
		}),
		identityChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_identity_changes_total",
			Help: "Identity change notifications received from the provider.",
		}),
	}
	m.registry.MustRegister(m.operations, m.operationDuration, m.sessionStatus, m.campaigns, m.identityChanges)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetStatus flips the status gauge so exactly one label reads 1.
func (m *Metrics) SetStatus(current string, all ...string) {
	if m == nil {
		return
	}
	for _, s := range all {
		m.sessionStatus.WithLabelValues(s).Set(0)
	}
	m.sessionStatus.WithLabelValues(current).Set(1)
}

func (m *Metrics) SetCampaignCount(n int) {
	if m == nil {
		return
	}
	m.campaigns.Set(float64(n))
}

func (m *Metrics) IdentityChanged() {
	if m == nil {
		return
	}
	m.identityChanges.Inc()
}
