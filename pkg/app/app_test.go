package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/middleware"
	"github.com/strataweb/strata/pkg/web"
)

func newTestApp() *App {
	return New(DefaultConfig(), zap.NewNop())
}

// TestLoggerAuthScenario drives a request through [timing, auth] wrapping a
// handler that returns 200 "ok". The rejected request short-circuits with
// 401 and never reaches the handler, while the outer timing middleware still
// attaches its header on the way out.
func TestLoggerAuthScenario(t *testing.T) {
	a := newTestApp()

	err := a.Use(func(r *web.Request, next chain.Next) (*web.Response, error) {
		start := time.Now()
		resp, err := next(r)
		if resp != nil {
			resp.Header.Set("X-Elapsed", time.Since(start).String())
		}
		return resp, err
	})
	if err != nil {
		t.Fatal(err)
	}
	provider := &middleware.BearerTokenProvider{ValidTokens: map[string]bool{"letmein": true}}
	if err := a.Use(middleware.Auth(provider, zap.NewNop())); err != nil {
		t.Fatal(err)
	}

	reached := false
	a.GET("/ok", func(*web.Request) (*web.Response, error) {
		reached = true
		return web.Text(http.StatusOK, "ok"), nil
	})

	if err := a.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}

	req := web.NewRequest("GET", "/ok", nil)
	resp, err := a.Dispatch(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
	if reached {
		t.Error("handler ran for a rejected request")
	}
	if resp.Header.Get("X-Elapsed") == "" {
		t.Error("outer middleware's post-processing did not run")
	}

	authed := web.NewRequest("GET", "/ok", nil)
	authed.Header.Set("Authorization", "Bearer letmein")
	resp, err = a.Dispatch(authed)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != "ok" {
		t.Errorf("authenticated = %d %q, want 200 ok", resp.StatusCode, resp.Body)
	}
	if !reached {
		t.Error("handler did not run for the authenticated request")
	}
}

func TestUseAfterStartupFails(t *testing.T) {
	a := newTestApp()
	a.GET("/", func(*web.Request) (*web.Response, error) {
		return web.Empty(http.StatusOK), nil
	})
	if err := a.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.Pipeline().State() != chain.StateFrozen {
		t.Fatalf("state after Startup = %v, want Frozen", a.Pipeline().State())
	}

	err := a.Use(func(r *web.Request, next chain.Next) (*web.Response, error) {
		return next(r)
	})
	var lifecycle *chain.LifecycleError
	if !errors.As(err, &lifecycle) {
		t.Fatalf("Use after Startup: err = %v, want *LifecycleError", err)
	}
}

func TestDispatchBackstop(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	a := New(DefaultConfig(), zap.New(core))

	a.GET("/fail", func(*web.Request) (*web.Response, error) {
		return nil, errors.New("unconverted handler failure")
	})
	a.GET("/panic", func(*web.Request) (*web.Response, error) {
		panic("deliberate")
	})
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/fail", "/panic"} {
		resp, err := a.Dispatch(web.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("%s: err = %v, want mapped response", path, err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want 500", path, resp.StatusCode)
		}
	}
	if got := logs.FilterMessage("Unhandled dispatch failure").Len(); got != 2 {
		t.Errorf("backstop log entries = %d, want 2", got)
	}

	// The pipeline survives: a healthy dispatch still works.
	a.Router().GET("/fine", func(*web.Request) (*web.Response, error) {
		return web.Empty(http.StatusOK), nil
	})
	resp, err := a.Dispatch(web.NewRequest("GET", "/fine", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthy dispatch = %d, want 200", resp.StatusCode)
	}
}

func TestDispatchBeforeBuildSurfacesLifecycleError(t *testing.T) {
	a := newTestApp()
	_, err := a.Dispatch(web.NewRequest("GET", "/", nil))
	var lifecycle *chain.LifecycleError
	if !errors.As(err, &lifecycle) {
		t.Fatalf("err = %v, want *LifecycleError", err)
	}
}

func TestNilResponseMapsTo500(t *testing.T) {
	a := newTestApp()
	a.GET("/", func(*web.Request) (*web.Response, error) {
		return nil, nil
	})
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}
	resp, err := a.Dispatch(web.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestLifespanHooks(t *testing.T) {
	a := newTestApp()
	var order []string
	a.OnStartup(func(context.Context) error {
		order = append(order, "up1")
		return nil
	})
	a.OnStartup(func(context.Context) error {
		order = append(order, "up2")
		return nil
	})
	a.OnShutdown(func(context.Context) error {
		order = append(order, "down")
		return nil
	})

	if err := a.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := "up1,up2,down"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("hook order = %s, want %s", got, want)
	}
}

func TestStartupHookFailureAborts(t *testing.T) {
	a := newTestApp()
	boom := errors.New("db unavailable")
	a.OnStartup(func(context.Context) error { return boom })

	if err := a.Startup(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want hook failure", err)
	}
	if a.Pipeline().State() == chain.StateFrozen {
		t.Error("pipeline froze despite failed startup")
	}
}

func TestServeHTTP(t *testing.T) {
	a := newTestApp()
	a.POST("/echo/:name", func(r *web.Request) (*web.Response, error) {
		return web.Text(http.StatusOK, r.Params.Get("name")+": "+r.Text()), nil
	})
	if err := a.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(a)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/echo/bob", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	if got := string(buf[:n]); got != "bob: hello" {
		t.Errorf("body = %q, want %q", got, "bob: hello")
	}
}

func TestServeHTTPBeforeBuildReturns503(t *testing.T) {
	a := newTestApp()
	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestServeHTTPBodyLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 4
	a := New(cfg, zap.NewNop())
	a.POST("/", func(r *web.Request) (*web.Response, error) {
		return web.Empty(http.StatusOK), nil
	})
	if err := a.Build(); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader("over the cap")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}
