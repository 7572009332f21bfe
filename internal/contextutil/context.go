// internal/contextutil/context.go
package contextutil

import (
	"context"

	"castingagency/internal/auth"
	"castingagency/internal/observability/logging"
)

// Key is a type-safe key for context values
type Key string

const (
	// LoggerKey is the key for the logger
	LoggerKey Key = "context:logger"

	// TraceIDKey is the key for the trace ID
	TraceIDKey Key = "context:trace_id"

	// SpanIDKey is the key for the span ID
	SpanIDKey Key = "context:span_id"

	// ClaimsKey is the key for the verified claim set
	ClaimsKey Key = "context:claims"
)

// WithLogger adds a logger to a context
func WithLogger(ctx context.Context, logger *logging.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetLogger retrieves a logger from a context
func GetLogger(ctx context.Context) *logging.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*logging.Logger); ok {
		return logger
	}
	return nil
}

// LoggerOr returns the request logger, or fallback when none is attached
func LoggerOr(ctx context.Context, fallback *logging.Logger) *logging.Logger {
	if logger := GetLogger(ctx); logger != nil {
		return logger
	}
	return fallback
}

// WithTraceID adds a trace ID to a context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves a trace ID from a context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithSpanID adds a span ID to a context
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves a span ID from a context
func GetSpanID(ctx context.Context) string {
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok {
		return spanID
	}
	return ""
}

// WithClaims adds a verified claim set to a context
func WithClaims(ctx context.Context, claims *auth.ClaimSet) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims retrieves the verified claim set from a context
func GetClaims(ctx context.Context) *auth.ClaimSet {
	if claims, ok := ctx.Value(ClaimsKey).(*auth.ClaimSet); ok {
		return claims
	}
	return nil
}

// EnrichContext adds standard observability items to a context and returns
// the trace ID in use.
func EnrichContext(ctx context.Context, logger *logging.Logger) (context.Context, string) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = logging.NewTraceID()
		ctx = WithTraceID(ctx, traceID)
	}

	spanID := logging.NewSpanID()
	ctx = WithSpanID(ctx, spanID)

	if logger != nil {
		ctx = WithLogger(ctx, logger.WithTracing(traceID, spanID))
	}

	return ctx, traceID
}
