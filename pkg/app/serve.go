package app

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/strataweb/strata/pkg/web"
)

// ServeHTTP implements http.Handler, making the App mountable on any
// net/http server. It converts the wire request into a web.Request — body
// read to completion, headers and query copied, the request context carried
// over so client disconnects and deadlines cancel the chain cooperatively —
// dispatches it, and writes the response back.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if a.config.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, body, a.config.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	req := &web.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Header:     r.Header,
		Query:      r.URL.Query(),
		Body:       data,
		RemoteAddr: r.RemoteAddr,
	}
	req = req.WithContext(r.Context())

	resp, err := a.Dispatch(req)
	if err != nil {
		// Lifecycle error: the pipeline was never built/frozen. A deploy
		// bug, surfaced loudly.
		a.logger.Error("Dispatch rejected", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	if err := resp.Write(w); err != nil {
		a.logger.Warn("Failed to write response",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
	}
}

// ListenAndServe starts the application: it runs Startup, serves HTTP on the
// configured address until ctx is canceled, then drains in-flight requests
// within the shutdown timeout and runs the shutdown hooks.
func (a *App) ListenAndServe(ctx context.Context) error {
	if err := a.Startup(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         a.config.Addr,
		Handler:      a,
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Listening", zap.String("addr", a.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx := context.Background()
	if a.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, a.config.ShutdownTimeout)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("Forced shutdown", zap.Error(err))
	}
	return a.Shutdown(shutdownCtx)
}
