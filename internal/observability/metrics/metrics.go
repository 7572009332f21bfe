// internal/observability/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelStatus     = "status"
	LabelMethod     = "method"
	LabelRoute      = "route"
	LabelPermission = "permission"
	LabelOutcome    = "outcome"
	LabelSuccess    = "success"
	LabelOperation  = "operation"
	LabelTrigger    = "trigger"
)

// Triggers of inline signing key fetches
const (
	// KeyFetchLoad is the fetch that first populates the key cache
	KeyFetchLoad = "load"
	// KeyFetchForced is a refresh forced by an unknown key id
	KeyFetchForced = "forced"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castingagency_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castingagency_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// AuthorizationTotal counts authorization attempts by required permission
	// and outcome ("allowed" or the failure kind)
	AuthorizationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castingagency_authorization_total",
			Help: "Total number of authorization attempts",
		},
		[]string{LabelPermission, LabelOutcome},
	)

	// KeyFetchTotal counts signing key fetches made inline by lookups: the
	// initial cache load and refreshes forced by unknown key ids. Background
	// refreshes are not counted.
	KeyFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castingagency_jwks_fetch_total",
			Help: "Total number of inline signing key fetches by trigger (load, forced) and outcome",
		},
		[]string{LabelTrigger, LabelSuccess},
	)

	// StoreOperationDuration tracks repository calls
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castingagency_store_operation_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelOperation, LabelSuccess},
	)
)

// Collector provides methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request. route is the matched
// route template, not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthorization records an authorization attempt
func (c *Collector) RecordAuthorization(permission, outcome string) {
	AuthorizationTotal.WithLabelValues(permission, outcome).Inc()
}

// RecordKeyFetch records an inline signing key fetch; trigger is
// KeyFetchLoad or KeyFetchForced
func (c *Collector) RecordKeyFetch(trigger string, success bool) {
	KeyFetchTotal.WithLabelValues(trigger, strconv.FormatBool(success)).Inc()
}

// RecordStoreOperation records a repository call
func (c *Collector) RecordStoreOperation(op string, success bool, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(op, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
