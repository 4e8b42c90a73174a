// Package middleware provides a collection of middleware components for the
// strata framework. Each component follows the pipeline contract: it receives
// the request and a single-use continuation, and returns a response, doing
// its work before and/or after invoking the continuation.
package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/web"
)

// Logging creates a middleware that logs every request with its status,
// duration and method/path. Server errors log at Error level, client errors
// at Warn, slow requests at Warn, everything else at Debug to avoid log spam.
func Logging(logger *zap.Logger) chain.Middleware {
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		start := time.Now()

		resp, err := next(r)

		duration := time.Since(start)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		if traceID := TraceIDFromContext(r.Context()); traceID != "" {
			fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
		}

		switch {
		case err != nil:
			logger.Error("Request failed", append(fields, zap.Error(err))...)
		case status >= 500:
			logger.Error("Server error", fields...)
		case status >= 400:
			logger.Warn("Client error", fields...)
		case duration > 1*time.Second:
			logger.Warn("Slow request", fields...)
		default:
			logger.Debug("Request", fields...)
		}
		return resp, err
	}
}

// Recovery creates a middleware that recovers from panics in downstream
// stages, logs the panic with its stack, and returns a 500 response. It is
// the first-line panic handler; the dispatcher remains the backstop for
// panics above it in the chain.
func Recovery(logger *zap.Logger) chain.Middleware {
	return func(r *web.Request, next chain.Next) (resp *web.Response, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic recovered",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("method", r.Method),
					zap.String("path", r.Path),
				)
				resp = web.Error(http.StatusInternalServerError)
				err = nil
			}
		}()
		return next(r)
	}
}

// Timeout creates a middleware that bounds the downstream stages with a
// deadline. On expiry it returns 504 Gateway Timeout; the downstream work
// observes the cancellation through the request context and unwinds on its
// own.
func Timeout(timeout time.Duration) chain.Middleware {
	type result struct {
		resp *web.Response
		err  error
	}
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			resp, err := next(r.WithContext(ctx))
			done <- result{resp, err}
		}()

		select {
		case res := <-done:
			return res.resp, res.err
		case <-ctx.Done():
			return web.Error(http.StatusGatewayTimeout), nil
		}
	}
}

// BodyLimit creates a middleware that rejects requests whose body exceeds
// maxSize bytes with 413 Request Entity Too Large.
func BodyLimit(maxSize int) chain.Middleware {
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		if len(r.Body) > maxSize {
			return web.Error(http.StatusRequestEntityTooLarge), nil
		}
		return next(r)
	}
}

// CORS creates a middleware that attaches CORS headers to every response and
// short-circuits preflight OPTIONS requests with 204.
func CORS(origins, methods, headers []string) chain.Middleware {
	allowOrigin := strings.Join(origins, ", ")
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")

	apply := func(resp *web.Response) {
		if allowOrigin != "" {
			resp.Header.Set("Access-Control-Allow-Origin", allowOrigin)
		}
		if allowMethods != "" {
			resp.Header.Set("Access-Control-Allow-Methods", allowMethods)
		}
		if allowHeaders != "" {
			resp.Header.Set("Access-Control-Allow-Headers", allowHeaders)
		}
	}

	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		if r.Method == http.MethodOptions {
			resp := web.Empty(http.StatusNoContent)
			apply(resp)
			return resp, nil
		}
		resp, err := next(r)
		if resp != nil {
			apply(resp)
		}
		return resp, err
	}
}
