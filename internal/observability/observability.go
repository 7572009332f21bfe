// internal/observability/observability.go
package observability

import (
	"context"
	"net/http"
	"time"

	"castingagency/internal/config"
	"castingagency/internal/contextutil"
	"castingagency/internal/httputils"
	"castingagency/internal/observability/logging"
	"castingagency/internal/observability/metrics"
)

// UnmatchedRoute labels requests that matched no route
const UnmatchedRoute = "unmatched"

// Provider provides observability capabilities
type Provider struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// NewProvider creates a new observability provider
func NewProvider(cfg *config.Config) (*Provider, error) {
	// Create logger
	logger, err := logging.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}, nil
}

type routeKey struct{}

type routeHolder struct {
	template string
}

// SetRoute records the matched route template for the request's metrics.
// Routers call it once a route has matched.
func SetRoute(ctx context.Context, template string) {
	if h, ok := ctx.Value(routeKey{}).(*routeHolder); ok {
		h.template = template
	}
}

// Middleware creates an HTTP middleware for request observation
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Attach trace IDs and a request logger to the context
		ctx, traceID := contextutil.EnrichContext(r.Context(), p.Logger)
		logger := contextutil.LoggerOr(ctx, p.Logger)

		route := &routeHolder{template: UnmatchedRoute}
		ctx = context.WithValue(ctx, routeKey{}, route)

		// Create a response wrapper to capture the status code
		wrapper := httputils.NewResponseWriter(w)

		// Add trace information to response headers
		wrapper.Header().Set("X-Trace-ID", traceID)

		logger.Debug("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(wrapper, r.WithContext(ctx))

		duration := time.Since(startTime)
		p.Metrics.RecordRequest(r.Method, route.template, wrapper.StatusCode, duration)

		logger.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route.template,
			"status", wrapper.StatusCode,
			"duration_ms", duration.Milliseconds(),
			"bytes_written", wrapper.BytesWritten,
		)
	})
}

// MetricsHandler returns an HTTP handler for exposing metrics
func (p *Provider) MetricsHandler() http.Handler {
	return metrics.Handler()
}
