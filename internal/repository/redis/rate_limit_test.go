package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "ratelimit", TTL: 2 * time.Minute})

	ctx := context.Background()
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "203.0.113.5", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "203.0.113.5", time.Minute, now.Add(2*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}
}

func TestRateLimitRepository_CountExcludesOldAttempts(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "ratelimit", TTL: 2 * time.Minute})

	ctx := context.Background()
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	if err := repo.RecordAttempt(ctx, "203.0.113.5", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "203.0.113.5", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "203.0.113.5", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the recent attempt, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "ratelimit", TTL: 2 * time.Minute})

	ctx := context.Background()
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	if err := repo.RecordAttempt(ctx, "203.0.113.5", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "203.0.113.5", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "203.0.113.5", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "203.0.113.5", 10*time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected trimmed set to hold 1 attempt, got %d", count)
	}
}

func TestRateLimitRepository_InvalidWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "ratelimit", TTL: 2 * time.Minute})

	now := time.Now()
	if _, err := repo.CountAttempts(context.Background(), "id", 0, now); err == nil {
		t.Fatalf("expected error for non-positive window")
	}
	if err := repo.TrimWindow(context.Background(), "id", 0, now); err == nil {
		t.Fatalf("expected error for non-positive window")
	}
}
