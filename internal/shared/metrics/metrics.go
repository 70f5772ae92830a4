// Package metrics provides Prometheus metric collection for the
// authorization pipeline and the session reconciler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records service metrics against a Prometheus registry.
type Collector struct {
	authorizeSuccess *prometheus.CounterVec
	authorizeFail    *prometheus.CounterVec
	sessionsStarted  prometheus.Counter
	sessionsClosed   *prometheus.CounterVec
	sessionsExpired  prometheus.Counter
	timeDebited      prometheus.Counter
	reconcileRuns    prometheus.Counter
	reconcileErrors  prometheus.Counter
	reconcileLatency prometheus.Histogram
}

// NewCollector creates a new Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authorizeSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_authorize_success_total",
			Help: "Successful credential authorizations by provider",
		}, []string{"provider"}),
		authorizeFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_authorize_fail_total",
			Help: "Failed credential authorizations by provider and error type",
		}, []string{"provider", "error_type"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_sessions_started_total",
			Help: "Sessions entitled through the grantor",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_sessions_closed_total",
			Help: "Sessions closed by the reconciler, by terminal state",
		}, []string{"state"}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_sessions_expired_total",
			Help: "Entitled sessions expired before they started",
		}),
		timeDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_time_debited_ms_total",
			Help: "Milliseconds debited from subscription budgets",
		}),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_reconcile_runs_total",
			Help: "Reconciler scan executions",
		}),
		reconcileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_reconcile_errors_total",
			Help: "Per-session reconciliation failures",
		}),
		reconcileLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamgate_reconcile_duration_seconds",
			Help:    "Duration of full reconciler scans",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authorizeSuccess,
		c.authorizeFail,
		c.sessionsStarted,
		c.sessionsClosed,
		c.sessionsExpired,
		c.timeDebited,
		c.reconcileRuns,
		c.reconcileErrors,
		c.reconcileLatency,
	)

	return c
}

// RecordAuthorizeSuccess records a successful authorization for a provider.
func (c *Collector) RecordAuthorizeSuccess(provider string) {
	c.authorizeSuccess.WithLabelValues(provider).Inc()
}

// RecordAuthorizeFailure records a failed authorization for a provider.
func (c *Collector) RecordAuthorizeFailure(provider, errorType string) {
	c.authorizeFail.WithLabelValues(provider, errorType).Inc()
}

// RecordSessionStarted records a newly entitled session.
func (c *Collector) RecordSessionStarted() {
	c.sessionsStarted.Inc()
}

// RecordSessionClosed records a session closed in the given terminal state.
func (c *Collector) RecordSessionClosed(state string) {
	c.sessionsClosed.WithLabelValues(state).Inc()
}

// RecordSessionExpired records an entitled session that never started.
func (c *Collector) RecordSessionExpired() {
	c.sessionsExpired.Inc()
}

// RecordTimeDebited records milliseconds debited from a subscription.
func (c *Collector) RecordTimeDebited(durationMs int64) {
	c.timeDebited.Add(float64(durationMs))
}

// RecordReconcileRun records one reconciler scan and its duration.
func (c *Collector) RecordReconcileRun(duration time.Duration) {
	c.reconcileRuns.Inc()
	c.reconcileLatency.Observe(duration.Seconds())
}

// RecordReconcileError records a per-session reconciliation failure.
func (c *Collector) RecordReconcileError() {
	c.reconcileErrors.Inc()
}

// Handler returns an HTTP handler serving the registry for Prometheus
// scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
