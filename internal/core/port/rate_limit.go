package port

import (
	"context"
	"time"
)

// RateLimitRepository tracks timestamped attempts per identifier for sliding
// window throttling.
type RateLimitRepository interface {
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
}
