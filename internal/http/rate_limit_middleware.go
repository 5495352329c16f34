package httpx

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitSwipe     = 240
	rateLimitStream    = 30
	rateSweepInterval  = 5 * time.Minute
)

// RateLimiter counts requests per key in fixed windows. Implementations must be
// safe for concurrent use.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) rateDecision
	Close()
}

type rateDecision struct {
	allowed   bool
	count     int
	windowEnd time.Time
}

// ratePolicy is the budget of one route. Each route gets its own counter per
// subject so read traffic never drains the write or swipe budgets.
type ratePolicy struct {
	route  string
	limit  int
	window time.Duration
}

func readPolicy(route string) ratePolicy {
	return ratePolicy{route: route, limit: rateLimitUserRead, window: rateWindowDefault}
}

func writePolicy(route string) ratePolicy {
	return ratePolicy{route: route, limit: rateLimitUserWrite, window: rateWindowDefault}
}

func streamPolicy(route string) ratePolicy {
	return ratePolicy{route: route, limit: rateLimitStream, window: rateWindowRealtime}
}

type fixedWindow struct {
	count int
	end   time.Time
}

type memoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*fixedWindow
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryRateLimiter returns a process-local limiter. Expired windows are
// evicted in the background until Close is called.
func NewMemoryRateLimiter() RateLimiter {
	rl := newMemoryRateLimiter(time.Now)
	go rl.sweep(rateSweepInterval)
	return rl
}

func newMemoryRateLimiter(now func() time.Time) *memoryRateLimiter {
	return &memoryRateLimiter{
		windows: make(map[string]*fixedWindow),
		now:     now,
		done:    make(chan struct{}),
	}
}

// Allow counts every call, rejected ones included, matching the Redis limiter's INCR.
func (rl *memoryRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = rateWindowDefault
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.end) {
		w = &fixedWindow{end: now.Add(window)}
		rl.windows[key] = w
	}
	w.count++
	return rateDecision{allowed: w.count <= limit, count: w.count, windowEnd: w.end}
}

func (rl *memoryRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictExpired()
		case <-rl.done:
			return
		}
	}
}

func (rl *memoryRateLimiter) evictExpired() int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	evicted := 0
	for key, w := range rl.windows {
		if !now.Before(w.end) {
			delete(rl.windows, key)
			evicted++
		}
	}
	return evicted
}

func (rl *memoryRateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// withRateLimit enforces p for the subject returned by subjectFn, falling back
// to the client IP when there is none.
func (r *Router) withRateLimit(p ratePolicy, subjectFn func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if p.limit <= 0 || r.limiter == nil {
			next(w, req)
			return
		}
		route := p.route
		if route == "" {
			route = req.URL.Path
		}
		subject := subjectFn(req)
		if subject == "" {
			subject = rateSubjectIP(req)
		}
		decision := r.limiter.Allow(rateKey(route, subject), p.limit, p.window)
		r.applyRateHeaders(w, p.limit, decision)
		if !decision.allowed {
			r.recordRateLimitHit(route, rateSubjectKind(subject))
			if !decision.windowEnd.IsZero() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.windowEnd, time.Now())))
			}
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, req)
	}
}

func (r *Router) authRate(p ratePolicy, next http.HandlerFunc) http.HandlerFunc {
	return r.requireAuth(r.withRateLimit(p, rateSubjectUser, next))
}

func rateKey(route, subject string) string {
	return subject + "|" + route
}

func rateSubjectUser(req *http.Request) string {
	if info, ok := authInfoFromContext(req.Context()); ok && info.UserID != "" {
		return "user:" + info.UserID
	}
	return ""
}

func rateSubjectIP(req *http.Request) string {
	host := clientIP(req)
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}

// rateSubjectKind is the metric label for a subject: "user", "ip" or "unknown".
func rateSubjectKind(subject string) string {
	if idx := strings.IndexByte(subject, ':'); idx > 0 {
		return subject[:idx]
	}
	return "unknown"
}

func retryAfterSeconds(windowEnd, now time.Time) int {
	secs := int(math.Ceil(windowEnd.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
