// Package app ties the framework together: it owns the router, the
// middleware pipeline and its lifecycle, the application logger, lifespan
// hooks, and the HTTP transport adapter. Setup code registers routes and
// middleware, then calls Startup (or Build/Freeze directly); every request
// after that flows through the same compiled chain.
package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/router"
	"github.com/strataweb/strata/pkg/web"
)

// Hook is a lifespan callback run during Startup or Shutdown.
type Hook func(context.Context) error

// App is a strata application.
type App struct {
	config   Config
	router   *router.Router
	pipeline *chain.Pipeline
	logger   *zap.Logger

	startupHooks  []Hook
	shutdownHooks []Hook
}

// New creates an App with the given configuration. If logger is nil a logger
// is built from the config's log section, falling back to a no-op logger.
func New(cfg Config, logger *zap.Logger) *App {
	if logger == nil {
		var err error
		logger, err = cfg.Log.NewLogger()
		if err != nil {
			logger = zap.NewNop()
		}
	}
	return &App{
		config:   cfg,
		router:   router.New(),
		pipeline: chain.NewPipeline(),
		logger:   logger,
	}
}

// Router returns the application's router, for registrations the shorthand
// methods below don't cover (groups, typed routes, custom 404/405).
func (a *App) Router() *router.Router { return a.router }

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Pipeline returns the middleware pipeline, exposing its lifecycle state for
// inspection.
func (a *App) Pipeline() *chain.Pipeline { return a.pipeline }

// GET registers a handler for GET requests on the given path.
func (a *App) GET(path string, h chain.Handler) { a.router.GET(path, h) }

// POST registers a handler for POST requests on the given path.
func (a *App) POST(path string, h chain.Handler) { a.router.POST(path, h) }

// PUT registers a handler for PUT requests on the given path.
func (a *App) PUT(path string, h chain.Handler) { a.router.PUT(path, h) }

// DELETE registers a handler for DELETE requests on the given path.
func (a *App) DELETE(path string, h chain.Handler) { a.router.DELETE(path, h) }

// PATCH registers a handler for PATCH requests on the given path.
func (a *App) PATCH(path string, h chain.Handler) { a.router.PATCH(path, h) }

// Use registers a middleware. Middleware run in registration order on the
// way in and reverse order on the way out. Registration after Freeze fails
// with a chain.LifecycleError.
func (a *App) Use(m chain.Middleware) error {
	return a.pipeline.Register(m)
}

// Build compiles the middleware pipeline around the router. It may be called
// repeatedly during setup; each call fully replaces the previous chain.
func (a *App) Build() error {
	return a.pipeline.Build(a.router.HandleRequest)
}

// Freeze makes the compiled pipeline final for the life of the process.
// Build must have been called since the last registration.
func (a *App) Freeze() error {
	return a.pipeline.Freeze()
}

// Dispatch runs one request through the compiled chain. It is the single
// entry point the transport adapter calls per inbound request.
//
// A chain.LifecycleError (no chain built yet, or middleware registered since
// the last build) is returned to the caller: it is a setup bug, not a
// request failure. Any failure escaping the chain itself — a handler error
// no middleware converted, or a panic — is logged and mapped to a generic
// 500 response; it never crashes the process or other in-flight requests.
func (a *App) Dispatch(req *web.Request) (*web.Response, error) {
	resp, err := a.pipeline.Dispatch(req)
	if err != nil {
		var lifecycle *chain.LifecycleError
		if errors.As(err, &lifecycle) {
			return nil, err
		}
		a.logger.Error("Unhandled dispatch failure",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return web.Error(http.StatusInternalServerError), nil
	}
	if resp == nil {
		// A handler returned (nil, nil); treat it as a failure rather than
		// hand the transport nothing.
		a.logger.Error("Nil response from chain",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
		)
		return web.Error(http.StatusInternalServerError), nil
	}
	return resp, nil
}

// OnStartup registers a hook to run during Startup, before the pipeline is
// built and frozen.
func (a *App) OnStartup(h Hook) { a.startupHooks = append(a.startupHooks, h) }

// OnShutdown registers a hook to run during Shutdown.
func (a *App) OnShutdown(h Hook) { a.shutdownHooks = append(a.shutdownHooks, h) }

// Startup completes application setup: it runs the startup hooks in
// registration order, then builds and freezes the pipeline. After Startup
// returns nil the application is in the Frozen state and ready to serve.
func (a *App) Startup(ctx context.Context) error {
	for _, h := range a.startupHooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	if err := a.Build(); err != nil {
		return err
	}
	return a.Freeze()
}

// Shutdown runs the shutdown hooks in registration order, stopping at the
// first error.
func (a *App) Shutdown(ctx context.Context) error {
	for _, h := range a.shutdownHooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}
