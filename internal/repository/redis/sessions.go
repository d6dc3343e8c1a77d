package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/aldergrove/cms-auth/internal/repository"
)

const (
	defaultSessionPrefix = "session"

	fieldPersonID   = "person_id"
	fieldLoginToken = "login_token"
)

// SessionState is the server side payload bound to a browser session cookie.
type SessionState struct {
	PersonID   int64
	LoginToken string
}

// SessionRepository stores browser session state in Redis hashes keyed by
// session ID. The TTL is refreshed on every save so an active browser keeps
// its session alive.
type SessionRepository struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(client *red.Client, keyPrefix string, ttl time.Duration) *SessionRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionRepository{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get fetches the state for a session ID.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*SessionState, error) {
	values, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	personID, err := strconv.ParseInt(values[fieldPersonID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse session person_id: %w", err)
	}

	return &SessionState{
		PersonID:   personID,
		LoginToken: values[fieldLoginToken],
	}, nil
}

// Put stores the state for a session ID and refreshes its TTL.
func (r *SessionRepository) Put(ctx context.Context, sessionID string, state *SessionState) error {
	key := r.key(sessionID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldPersonID:   strconv.FormatInt(state.PersonID, 10),
		fieldLoginToken: state.LoginToken,
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}

	return nil
}

// Delete removes the state for a session ID.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, sessionID)
}
