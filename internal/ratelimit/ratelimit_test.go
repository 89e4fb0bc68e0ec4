package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLimiter(rate float64, burst int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(rate, burst, nil)
	l.now = clock.Now
	return l, clock
}

func TestNewLimiterAllowsFirstRequest(t *testing.T) {
	limiter, _ := newTestLimiter(10, 5)

	if ok, _ := limiter.allow("192.168.1.1"); !ok {
		t.Error("expected first request from new client to be allowed")
	}
}

func TestRequestsWithinBurstAreAllowed(t *testing.T) {
	burst := 5
	limiter, _ := newTestLimiter(1, burst)

	for i := 0; i < burst; i++ {
		if ok, _ := limiter.allow("192.168.1.1"); !ok {
			t.Errorf("request %d within burst of %d should be allowed", i+1, burst)
		}
	}
}

func TestRequestsExceedingBurstAreDenied(t *testing.T) {
	burst := 3
	limiter, _ := newTestLimiter(1, burst)

	for i := 0; i < burst; i++ {
		limiter.allow("192.168.1.1")
	}

	ok, wait := limiter.allow("192.168.1.1")
	if ok {
		t.Error("request exceeding burst should be denied")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("expected wait within one token interval, got %v", wait)
	}
}

func TestTokensReplenishOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(10, 2)

	limiter.allow("192.168.1.1")
	limiter.allow("192.168.1.1")
	if ok, _ := limiter.allow("192.168.1.1"); ok {
		t.Fatal("expected request to be denied after exhausting burst")
	}

	// At 10 tokens/sec, 150ms gives ~1.5 tokens.
	clock.now = clock.now.Add(150 * time.Millisecond)

	if ok, _ := limiter.allow("192.168.1.1"); !ok {
		t.Error("expected request to be allowed after tokens replenish")
	}
}

func TestClientsAreLimitedIndependently(t *testing.T) {
	limiter, _ := newTestLimiter(1, 1)

	limiter.allow("client-a")
	if ok, _ := limiter.allow("client-a"); ok {
		t.Error("expected client-a to be limited")
	}
	if ok, _ := limiter.allow("client-b"); !ok {
		t.Error("expected client-b to be unaffected")
	}
}

func TestSweepForgetsIdleVisitors(t *testing.T) {
	limiter, clock := newTestLimiter(1, 1)
	limiter.allow("client-a")

	clock.now = clock.now.Add(11 * time.Minute)
	limiter.sweep(10 * time.Minute)

	limiter.mu.Lock()
	n := len(limiter.visitors)
	limiter.mu.Unlock()
	if n != 0 {
		t.Errorf("expected idle visitor to be removed, %d left", n)
	}
}

func TestStartCleanupStopsWithContext(t *testing.T) {
	limiter, _ := newTestLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	limiter.StartCleanup(ctx, time.Millisecond, time.Minute)
	cancel()
}

func TestMiddlewareReturns429WithRetryAfter(t *testing.T) {
	limiter := NewLimiter(1, 1, func(r *http.Request) string { return r.Header.Get("X-Client") })
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/unlock", nil)
		req.Header.Set("X-Client", "one")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got %q", ct)
	}
}
