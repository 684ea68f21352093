package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
)

// Policy admits Limit requests per key in each fixed Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func PerMinute(rpm int) Policy {
	return Policy{Limit: rpm, Window: time.Minute}.normalized()
}

func (p Policy) normalized() Policy {
	if p.Limit <= 0 {
		p.Limit = 1
	}
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	return p
}

// windowBounds aligns windows on the Unix epoch so every backend and every
// replica agrees on where a window starts.
func (p Policy) windowBounds(now time.Time) (start, reset time.Time) {
	start = now.Truncate(p.Window)
	return start, start.Add(p.Window)
}

type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (Decision, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// LocalLimiter is the single-process Limiter.
type LocalLimiter struct {
	mu        sync.Mutex
	windows   map[string]localWindow
	nextSweep time.Time
	now       func() time.Time
}

type localWindow struct {
	reset time.Time
	count int
}

func NewLocalLimiter() *LocalLimiter {
	return newLocalLimiter(time.Now)
}

func newLocalLimiter(now func() time.Time) *LocalLimiter {
	return &LocalLimiter{windows: make(map[string]localWindow), now: now}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, policy Policy) (Decision, error) {
	policy = policy.normalized()
	now := l.now()
	_, reset := policy.windowBounds(now)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !now.Before(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.reset) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = reset
	}

	w := l.windows[key]
	if w.reset != reset {
		w = localWindow{reset: reset}
	}
	if w.count >= policy.Limit {
		return Decision{ResetAt: reset}, nil
	}
	w.count++
	l.windows[key] = w
	return Decision{Allowed: true, Remaining: policy.Limit - w.count, ResetAt: reset}, nil
}

// RateLimiter enforces one Policy per client IP under a scope name.
type RateLimiter struct {
	limiter Limiter
	policy  Policy
	mode    FailureMode
	scope   string
}

// NewRateLimiter uses a LocalLimiter when limiter is nil.
func NewRateLimiter(limiter Limiter, policy Policy, mode FailureMode, scope string) *RateLimiter {
	if limiter == nil {
		limiter = NewLocalLimiter()
	}
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{limiter: limiter, policy: policy.normalized(), mode: mode, scope: scope}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			decision, err := rl.limiter.Allow(ctx, rl.scope+":"+clientIPKey(r), rl.policy)
			switch {
			case err != nil && rl.mode == FailOpen:
				observability.RecordRateLimitDecision(ctx, rl.scope, "backend_error")
				slog.WarnContext(ctx, "rate limiter backend unavailable, allowing request", "scope", rl.scope, "error", err)
				next.ServeHTTP(w, r)
			case err != nil:
				observability.RecordRateLimitDecision(ctx, rl.scope, "backend_error")
				_, reset := rl.policy.windowBounds(time.Now())
				rl.reject(w, r, Decision{ResetAt: reset})
			case !decision.Allowed:
				observability.RecordRateLimitDecision(ctx, rl.scope, "deny")
				rl.reject(w, r, decision)
			default:
				observability.RecordRateLimitDecision(ctx, rl.scope, "allow")
				rl.writeHeaders(w.Header(), decision)
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, d Decision) {
	rl.writeHeaders(w.Header(), d)
	retry := int(time.Until(d.ResetAt).Round(time.Second).Seconds())
	w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
	response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
}

func (rl *RateLimiter) writeHeaders(h http.Header, d Decision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(rl.policy.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// clientIPKey relies on chi's RealIP having already rewritten RemoteAddr.
func clientIPKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return r.RemoteAddr
}
