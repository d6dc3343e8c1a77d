package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/repository"
)

// ErrKeyNotFound indicates no enabled signing key exists for the requested
// domain. Callers must surface it as a generic validation rejection so the
// response never reveals which domains are registered.
var ErrKeyNotFound = errors.New("signing key not found")

// KeyResolver looks up the symmetric signing key for an issuing domain.
type KeyResolver struct {
	domains port.InstalledDomainRepository
	keys    port.SigningKeyRepository
}

// NewKeyResolver constructs a KeyResolver.
func NewKeyResolver(domains port.InstalledDomainRepository, keys port.SigningKeyRepository) *KeyResolver {
	return &KeyResolver{domains: domains, keys: keys}
}

// ResolveKey returns the enabled signing key for the installed domain whose
// title matches the supplied name, scheme-stripped. The domain's own enabled
// flag is not consulted here; whether a disabled domain may participate is a
// separate question from which key it signs with. Missing domain and missing
// key both resolve to ErrKeyNotFound.
func (r *KeyResolver) ResolveKey(ctx context.Context, domainTitle string) (string, error) {
	title := domain.StripScheme(domainTitle)
	if title == "" {
		return "", ErrKeyNotFound
	}

	installed, err := r.domains.GetByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("lookup installed domain: %w", err)
	}

	key, err := r.keys.GetEnabledByDomainID(ctx, installed.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("lookup signing key: %w", err)
	}

	return key.Key, nil
}
