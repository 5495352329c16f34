package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestMemoryRateLimiterWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := newMemoryRateLimiter(clock.Now)
	defer rl.Close()

	for i := 1; i <= 3; i++ {
		d := rl.Allow("user:u1|matches", 3, time.Minute)
		if !d.allowed || d.count != i {
			t.Fatalf("call %d: unexpected decision %+v", i, d)
		}
	}
	if d := rl.Allow("user:u1|matches", 3, time.Minute); d.allowed {
		t.Fatalf("expected fourth call to be limited")
	}
	if d := rl.Allow("user:u2|matches", 3, time.Minute); !d.allowed {
		t.Fatalf("expected independent key to be allowed")
	}
	if d := rl.Allow("user:u1|matches", 0, time.Minute); !d.allowed {
		t.Fatalf("expected zero limit to disable limiting")
	}

	clock.now = clock.now.Add(time.Minute)
	d := rl.Allow("user:u1|matches", 3, time.Minute)
	if !d.allowed || d.count != 1 {
		t.Fatalf("expected a fresh window at the boundary, got %+v", d)
	}
	if want := clock.now.Add(time.Minute); !d.windowEnd.Equal(want) {
		t.Fatalf("window end = %v, want %v", d.windowEnd, want)
	}
}

func TestMemoryRateLimiterEvictsExpiredWindows(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := newMemoryRateLimiter(clock.Now)
	defer rl.Close()

	rl.Allow("short", 5, time.Second)
	rl.Allow("long", 5, time.Hour)
	clock.now = clock.now.Add(2 * time.Second)

	if n := rl.evictExpired(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, ok := rl.windows["long"]; !ok {
		t.Fatalf("expected live window to survive")
	}
}

func TestRateLimitBudgetsArePerRoute(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	rl := newMemoryRateLimiter(clock.Now)
	defer rl.Close()
	r := &Router{limiter: rl}

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	read := r.withRateLimit(ratePolicy{route: "matches", limit: 2, window: time.Minute}, rateSubjectUser, ok)
	write := r.withRateLimit(ratePolicy{route: "swipes", limit: 2, window: time.Minute}, rateSubjectUser, ok)

	call := func(h http.HandlerFunc) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), contextKeyAuth, authInfo{UserID: "u1"}))
		rr := httptest.NewRecorder()
		h(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := call(read); rr.Code != http.StatusNoContent {
			t.Fatalf("read %d: expected 204, got %d", i, rr.Code)
		}
	}
	rr := call(read)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected read budget exhausted, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("unexpected Retry-After %q", got)
	}
	if rr := call(write); rr.Code != http.StatusNoContent {
		t.Fatalf("expected write budget untouched by reads, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("unexpected remaining header %q", got)
	}
}

func TestRateLimitSubjects(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	if got := rateSubjectIP(req); got != "ip:203.0.113.7" {
		t.Fatalf("unexpected ip subject %q", got)
	}
	req.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")
	if got := rateSubjectIP(req); got != "ip:198.51.100.2" {
		t.Fatalf("unexpected forwarded subject %q", got)
	}
	if got := rateSubjectUser(req); got != "" {
		t.Fatalf("expected no user subject without auth, got %q", got)
	}
	if got := rateKey("swipes", "user:abc"); got != "user:abc|swipes" {
		t.Fatalf("unexpected key %q", got)
	}

	cases := map[string]string{
		"user:abc":   "user",
		"ip:1.2.3.4": "ip",
		"":           "unknown",
		"bare":       "unknown",
	}
	for subject, want := range cases {
		if got := rateSubjectKind(subject); got != want {
			t.Fatalf("rateSubjectKind(%q) = %q, want %q", subject, got, want)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	if got := retryAfterSeconds(now.Add(1500*time.Millisecond), now); got != 2 {
		t.Fatalf("expected rounding up to 2, got %d", got)
	}
	if got := retryAfterSeconds(now.Add(-time.Second), now); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}
