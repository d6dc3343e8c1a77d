package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aldergrove/cms-auth/internal/repository"
)

func TestSessionRepository_PutAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewSessionRepository(client, "session", 30*time.Minute)

	ctx := context.Background()
	err := repo.Put(ctx, "sid-1", &SessionState{PersonID: 42, LoginToken: "token-42"})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	state, err := repo.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if state.PersonID != 42 {
		t.Fatalf("expected person 42, got %d", state.PersonID)
	}
	if state.LoginToken != "token-42" {
		t.Fatalf("expected login token token-42, got %s", state.LoginToken)
	}

	remaining := server.TTL("session:sid-1")
	if remaining <= 0 || remaining > 30*time.Minute {
		t.Fatalf("expected ttl within (0, 30m], got %v", remaining)
	}
}

func TestSessionRepository_PutRefreshesTTL(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewSessionRepository(client, "session", 30*time.Minute)

	ctx := context.Background()
	if err := repo.Put(ctx, "sid-1", &SessionState{PersonID: 42, LoginToken: "token-42"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	server.FastForward(20 * time.Minute)

	if err := repo.Put(ctx, "sid-1", &SessionState{PersonID: 42, LoginToken: "token-42"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	remaining := server.TTL("session:sid-1")
	if remaining <= 20*time.Minute {
		t.Fatalf("expected ttl to be refreshed past 20m, got %v", remaining)
	}
}

func TestSessionRepository_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewSessionRepository(client, "session", 30*time.Minute)

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewSessionRepository(client, "session", 30*time.Minute)

	ctx := context.Background()
	if err := repo.Put(ctx, "sid-1", &SessionState{PersonID: 42, LoginToken: "token-42"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if err := repo.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.Get(ctx, "sid-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
