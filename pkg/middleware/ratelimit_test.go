package middleware

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/strataweb/strata/pkg/web"
)

func TestTokenBucketLimiter(t *testing.T) {
	l := NewTokenBucketLimiter(rate.Limit(1), 2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst requests rejected")
	}
	if l.Allow("a") {
		t.Error("request over burst allowed")
	}
	// Separate keys get separate buckets.
	if !l.Allow("b") {
		t.Error("fresh key rejected")
	}
}

func TestLeakyBucketSmooths(t *testing.T) {
	// The leaky bucket never rejects; it delays. High rate keeps the test fast.
	l := NewLeakyBucketLimiter(1000)
	for i := 0; i < 5; i++ {
		if !l.Allow("k") {
			t.Fatal("leaky bucket rejected a request")
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(NewTokenBucketLimiter(rate.Limit(1), 1), KeyByIP, zap.NewNop())

	req := web.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:4242"

	resp, err := mw(req, passThrough(http.StatusOK, ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request: status = %d", resp.StatusCode)
	}

	called := false
	resp, err = mw(req, func(*web.Request) (*web.Response, error) {
		called = true
		return web.Empty(http.StatusOK), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("continuation ran for a rejected request")
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", resp.StatusCode)
	}

	// A different client IP lands in its own bucket.
	other := web.NewRequest("GET", "/", nil)
	other.RemoteAddr = "203.0.113.9:4242"
	resp, err = mw(other, passThrough(http.StatusOK, ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("other client: status = %d", resp.StatusCode)
	}
}

func TestKeyFuncs(t *testing.T) {
	r := web.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:9999"
	if got := KeyByIP(r); got != "192.0.2.10" {
		t.Errorf("KeyByIP = %q", got)
	}
	r.RemoteAddr = "no-port"
	if got := KeyByIP(r); got != "no-port" {
		t.Errorf("KeyByIP without port = %q", got)
	}
	if got := KeyByPrincipal(r); got != "" {
		t.Errorf("KeyByPrincipal on anonymous request = %q", got)
	}
}
