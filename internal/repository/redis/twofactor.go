package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/repository"
)

const (
	defaultTwoFactorPrefix = "twofactor"

	fieldCode      = "code"
	fieldAttempts  = "attempts"
	fieldCreatedAt = "created_at"
)

// TwoFactorRepository persists outstanding verification codes in Redis
// hashes keyed by email. Expiry is decided by the caller from the stored
// creation time, not by Redis: an aged-out code must still be readable so
// the flow can tell "expired" apart from "never issued". The key TTL is
// housekeeping only and is set well past the code lifetime.
type TwoFactorRepository struct {
	client       *red.Client
	prefix       string
	retainPeriod time.Duration
}

var _ port.TwoFactorRepository = (*TwoFactorRepository)(nil)

// NewTwoFactorRepository constructs a TwoFactorRepository. retainPeriod
// bounds how long a stale challenge lingers before Redis drops it.
func NewTwoFactorRepository(client *red.Client, keyPrefix string, retainPeriod time.Duration) *TwoFactorRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultTwoFactorPrefix
	}

	return &TwoFactorRepository{
		client:       client,
		prefix:       prefix,
		retainPeriod: retainPeriod,
	}
}

// Replace stores the code, discarding any challenge already outstanding for
// the email.
func (r *TwoFactorRepository) Replace(ctx context.Context, rec *domain.TwoFactorCode) error {
	key := r.key(rec.Email)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      rec.Code,
		fieldAttempts:  strconv.Itoa(rec.Attempts),
		fieldCreatedAt: strconv.FormatInt(rec.CreatedAt.Unix(), 10),
	})
	if r.retainPeriod > 0 {
		pipe.Expire(ctx, key, r.retainPeriod)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store twofactor code: %w", err)
	}

	return nil
}

// Get fetches the outstanding challenge for the email.
func (r *TwoFactorRepository) Get(ctx context.Context, email string) (*domain.TwoFactorCode, error) {
	values, err := r.client.HGetAll(ctx, r.key(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get twofactor code: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	attempts, err := strconv.Atoi(values[fieldAttempts])
	if err != nil {
		return nil, fmt.Errorf("parse twofactor attempts: %w", err)
	}
	createdUnix, err := strconv.ParseInt(values[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse twofactor created_at: %w", err)
	}

	return &domain.TwoFactorCode{
		Email:     email,
		Code:      values[fieldCode],
		Attempts:  attempts,
		CreatedAt: time.Unix(createdUnix, 0).UTC(),
	}, nil
}

// IncrementAttempts bumps the attempt counter and returns the new value.
// A missing challenge reports repository.ErrNotFound without creating one.
func (r *TwoFactorRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	key := r.key(email)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis check twofactor code: %w", err)
	}
	if exists == 0 {
		return 0, repository.ErrNotFound
	}

	attempts, err := r.client.HIncrBy(ctx, key, fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis increment twofactor attempts: %w", err)
	}

	return int(attempts), nil
}

// Delete removes the challenge for the email.
func (r *TwoFactorRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.key(email)).Err(); err != nil {
		return fmt.Errorf("redis delete twofactor code: %w", err)
	}
	return nil
}

func (r *TwoFactorRepository) key(email string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ToLower(strings.TrimSpace(email)))
}
