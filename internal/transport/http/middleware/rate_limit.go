package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/port"
)

const (
	rateLimitProblemType  = "https://records.campus.example/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit. Name doubles as the store
// scope, so two rules with the same name share their windows.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

func (r RateLimitRule) usable() bool {
	return r.Identifier != nil && r.Limit > 0 && r.Window > 0
}

// RateLimiter enforces sliding-window rules backed by a RateLimitStore.
// Store failures let the request through.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// window is the state of one rule for one identifier after evaluation.
type window struct {
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
	allowed    bool
}

// ProblemDetails represents an RFC 9457 compatible error payload for rate limits.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{store: store, logger: logger, now: time.Now}
}

// WithClock allows injection of a custom clock.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier scopes a rule to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// PrincipalIdentifier scopes a rule to the authenticated principal. It must
// run after RequireSession.
func PrincipalIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		principal, ok := CurrentPrincipal(c)
		return principal.ID, ok && principal.ID != ""
	}
}

// RateLimit returns a Gin middleware enforcing the provided rules. The first
// exhausted rule rejects the request; otherwise the tightest rule sets the headers.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	active := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.usable() {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		active = append(active, rule)
	}

	return func(c *gin.Context) {
		if len(active) == 0 || rl.store == nil {
			c.Next()
			return
		}

		now := rl.now()
		var tightest *window

		for _, rule := range active {
			identifier, ok := rule.Identifier(c)
			if !ok {
				continue
			}

			w, err := rl.evaluate(c, rule, identifier, now)
			if err != nil {
				rl.logger.Warn("rate limit check failed", zap.String("rule", rule.Name), zap.Error(err))
				continue
			}

			if !w.allowed {
				writeRateLimitHeaders(c, w)
				rl.reject(c, w)
				return
			}
			if tightest == nil || w.remaining < tightest.remaining ||
				(w.remaining == tightest.remaining && w.reset.Before(tightest.reset)) {
				tightest = &w
			}
		}

		if tightest != nil {
			writeRateLimitHeaders(c, *tightest)
		}
		c.Next()
	}
}

func (rl *RateLimiter) evaluate(c *gin.Context, rule RateLimitRule, subject string, now time.Time) (window, error) {
	ctx := c.Request.Context()

	state, err := rl.store.Window(ctx, rule.Name, subject, rule.Window, now)
	if err != nil {
		return window{}, err
	}

	w := window{limit: rule.Limit, reset: now.Add(rule.Window), allowed: true}
	if state.Count > 0 {
		w.reset = state.Oldest.Add(rule.Window)
	}
	w.retryAfter = max(w.reset.Sub(now), 0)

	if state.Count >= rule.Limit {
		w.allowed = false
		return w, nil
	}

	if err := rl.store.Record(ctx, rule.Name, subject, now); err != nil {
		return window{}, err
	}
	w.remaining = max(rule.Limit-state.Count-1, 0)
	return w, nil
}

func writeRateLimitHeaders(c *gin.Context, w window) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(w.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(w.remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(w.reset.Unix(), 10))
	if !w.allowed {
		headers.Set("Retry-After", strconv.Itoa(RetryAfterSeconds(w.retryAfter)))
	}
}

func (rl *RateLimiter) reject(c *gin.Context, w window) {
	seconds := RetryAfterSeconds(w.retryAfter)

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds),
		Instance:   instance,
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	})
}

// RetryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func RetryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 0)
}
