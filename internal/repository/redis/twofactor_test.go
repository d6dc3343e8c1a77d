package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestTwoFactorRepository_ReplaceAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewTwoFactorRepository(client, "twofactor", 10*time.Minute)

	ctx := context.Background()
	issued := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	err := repo.Replace(ctx, &domain.TwoFactorCode{
		Email:     "Pat@Example.com",
		Code:      "aaa1111",
		Attempts:  0,
		CreatedAt: issued,
	})
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	rec, err := repo.Get(ctx, "pat@example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.Code != "aaa1111" {
		t.Fatalf("expected code aaa1111, got %s", rec.Code)
	}
	if rec.Attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", rec.Attempts)
	}
	if !rec.CreatedAt.Equal(issued) {
		t.Fatalf("expected created_at %v, got %v", issued, rec.CreatedAt)
	}

	remaining := server.TTL("twofactor:pat@example.com")
	if remaining <= 0 || remaining > 10*time.Minute {
		t.Fatalf("expected ttl within (0, 10m], got %v", remaining)
	}
}

func TestTwoFactorRepository_ReplaceDiscardsOutstanding(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewTwoFactorRepository(client, "twofactor", 10*time.Minute)

	ctx := context.Background()
	first := &domain.TwoFactorCode{Email: "pat@example.com", Code: "aaa1111", Attempts: 2, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := repo.Replace(ctx, first); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	second := &domain.TwoFactorCode{Email: "pat@example.com", Code: "bbb2222", Attempts: 0, CreatedAt: first.CreatedAt.Add(time.Minute)}
	if err := repo.Replace(ctx, second); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	rec, err := repo.Get(ctx, "pat@example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.Code != "bbb2222" {
		t.Fatalf("expected replacement code, got %s", rec.Code)
	}
	if rec.Attempts != 0 {
		t.Fatalf("expected attempts reset to 0, got %d", rec.Attempts)
	}
}

func TestTwoFactorRepository_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewTwoFactorRepository(client, "twofactor", 10*time.Minute)

	if _, err := repo.Get(context.Background(), "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTwoFactorRepository_IncrementAttempts(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewTwoFactorRepository(client, "twofactor", 10*time.Minute)

	ctx := context.Background()
	rec := &domain.TwoFactorCode{Email: "pat@example.com", Code: "aaa1111", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := repo.Replace(ctx, rec); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementAttempts(ctx, "pat@example.com")
		if err != nil {
			t.Fatalf("IncrementAttempts returned error: %v", err)
		}
		if got != want {
			t.Fatalf("expected attempt count %d, got %d", want, got)
		}
	}

	if _, err := repo.IncrementAttempts(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing challenge, got %v", err)
	}
}

func TestTwoFactorRepository_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewTwoFactorRepository(client, "twofactor", 10*time.Minute)

	ctx := context.Background()
	rec := &domain.TwoFactorCode{Email: "pat@example.com", Code: "aaa1111", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := repo.Replace(ctx, rec); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	if err := repo.Delete(ctx, "pat@example.com"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.Get(ctx, "pat@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an already absent challenge is not an error.
	if err := repo.Delete(ctx, "pat@example.com"); err != nil {
		t.Fatalf("Delete of absent challenge returned error: %v", err)
	}
}
