package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/aldergrove/cms-auth/internal/core/domain"
)

func resolverFixture() *KeyResolver {
	domains := &validatorDomainRepo{domains: map[string]*domain.InstalledDomain{
		"blog.example.com": {ID: 7, Title: "blog.example.com", Enabled: true},
	}}
	keys := &validatorKeyRepo{keys: map[int64]*domain.SigningKey{
		7: {ID: 1, InstalledDomainID: 7, Key: "secret", Enabled: true},
	}}
	return NewKeyResolver(domains, keys)
}

func TestResolveKeyStripsScheme(t *testing.T) {
	resolver := resolverFixture()

	for _, name := range []string{"blog.example.com", "http://blog.example.com", "https://blog.example.com"} {
		key, err := resolver.ResolveKey(context.Background(), name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if key != "secret" {
			t.Fatalf("%s: unexpected key %q", name, key)
		}
	}
}

func TestResolveKeyIgnoresDomainEnabledFlag(t *testing.T) {
	domains := &validatorDomainRepo{domains: map[string]*domain.InstalledDomain{
		"blog.example.com": {ID: 7, Title: "blog.example.com", Enabled: false},
	}}
	keys := &validatorKeyRepo{keys: map[int64]*domain.SigningKey{
		7: {ID: 1, InstalledDomainID: 7, Key: "secret", Enabled: true},
	}}
	resolver := NewKeyResolver(domains, keys)

	key, err := resolver.ResolveKey(context.Background(), "blog.example.com")
	if err != nil {
		t.Fatalf("expected key resolved for disabled domain, got %v", err)
	}
	if key != "secret" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestResolveKeyUnknownDomain(t *testing.T) {
	resolver := resolverFixture()

	if _, err := resolver.ResolveKey(context.Background(), "https://other.example.com"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestResolveKeyEmptyDomain(t *testing.T) {
	resolver := resolverFixture()

	if _, err := resolver.ResolveKey(context.Background(), ""); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestResolveKeyDomainWithoutEnabledKey(t *testing.T) {
	domains := &validatorDomainRepo{domains: map[string]*domain.InstalledDomain{
		"blog.example.com": {ID: 7, Title: "blog.example.com", Enabled: true},
	}}
	keys := &validatorKeyRepo{keys: map[int64]*domain.SigningKey{}}
	resolver := NewKeyResolver(domains, keys)

	if _, err := resolver.ResolveKey(context.Background(), "blog.example.com"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}
