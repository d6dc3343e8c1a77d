package port

import (
	"context"
	"time"
)

// TokenRecordRepository persists accepted JWT strings for replay prevention.
type TokenRecordRepository interface {
	// Exists reports whether the token string has been recorded before.
	Exists(ctx context.Context, jwt string) (bool, error)

	// Record inserts the token string. The insert is atomic against
	// concurrent requests bearing the same token: a second insert returns
	// repository.ErrDuplicate instead of creating a second row.
	Record(ctx context.Context, jwt string, at time.Time) error

	// DeleteOlderThan removes records created before the cutoff and returns
	// how many rows went away. Safe to run concurrently with validation.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
