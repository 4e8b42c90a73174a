package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/web"
)

// traceIDKey is the context key for the per-request trace ID.
type traceIDKey struct{}

// Trace creates a middleware that generates a unique trace ID for each
// request, stores it in the request context for downstream stages and logs,
// and attaches it to the response as an X-Trace-Id header on the way out.
func Trace() chain.Middleware {
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		traceID := uuid.New().String()

		resp, err := next(r.WithContext(
			context.WithValue(r.Context(), traceIDKey{}, traceID),
		))

		if resp != nil {
			resp.Header.Set("X-Trace-Id", traceID)
		}
		return resp, err
	}
}

// TraceID extracts the trace ID from the request context. Returns an empty
// string if no trace ID is present.
func TraceID(r *web.Request) string {
	return TraceIDFromContext(r.Context())
}

// TraceIDFromContext extracts the trace ID from a context. Returns an empty
// string if no trace ID is present.
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}
