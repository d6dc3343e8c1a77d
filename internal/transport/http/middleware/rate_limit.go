package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	appLogger "github.com/aldergrove/cms-auth/internal/infra/logger"
)

// IdentifierFunc extracts the identifier used to scope rate limits.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit for a particular identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window limits backed by a shared store.
type RateLimiter struct {
	store  port.RateLimitRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(store port.RateLimitRepository, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock allows injection of a custom clock.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// Limit returns a Gin middleware enforcing the rule. Store failures fail
// open: an unreachable limiter must not take logins down with it.
func (rl *RateLimiter) Limit(rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.store == nil || rule.Limit <= 0 || rule.Window <= 0 {
			c.Next()
			return
		}

		identifier, ok := rule.Identifier(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := rl.now().UTC()
		key := rule.Name + ":" + identifier

		if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
			rl.logger.Warn("rate limit trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
		if err != nil {
			rl.logger.Warn("rate limit count failed", zap.Error(err))
			c.Next()
			return
		}

		if count >= rule.Limit {
			retryAfter := int(math.Ceil(rule.Window.Seconds()))
			rl.logger.Warn("rate limit exceeded",
				zap.String("rule", rule.Name),
				zap.String("identifier", appLogger.MaskIP(identifier)),
				zap.Int("count", count),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many attempts",
				"retry_after": retryAfter,
			})
			return
		}

		if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
			rl.logger.Warn("rate limit record failed", zap.Error(err))
		}

		c.Next()
	}
}
