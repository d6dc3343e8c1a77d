package domain

import (
	"testing"
	"time"
)

func TestStripScheme(t *testing.T) {
	cases := map[string]string{
		"https://blog.example.com": "blog.example.com",
		"http://blog.example.com":  "blog.example.com",
		"blog.example.com":         "blog.example.com",
		"  https://blog.example.com": "blog.example.com",
		"": "",
	}

	for input, want := range cases {
		if got := StripScheme(input); got != want {
			t.Errorf("StripScheme(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTwoFactorCodeExpired(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	code := TwoFactorCode{CreatedAt: now.Add(-5 * time.Minute)}

	if code.Expired(now, 5*time.Minute) {
		t.Fatal("code exactly at lifetime must not be expired yet")
	}
	if !code.Expired(now.Add(time.Second), 5*time.Minute) {
		t.Fatal("code past lifetime must be expired")
	}
}

func TestLoginInactiveSince(t *testing.T) {
	cutoff := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	active := Login{UpdatedAt: cutoff}
	if active.InactiveSince(cutoff) {
		t.Fatal("login touched at the cutoff is still active")
	}

	idle := Login{UpdatedAt: cutoff.Add(-time.Minute)}
	if !idle.InactiveSince(cutoff) {
		t.Fatal("login last touched before the cutoff is inactive")
	}
}
