package port

import (
	"context"

	"github.com/aldergrove/cms-auth/internal/core/domain"
)

// InstalledDomainRepository reads the registered participant domains.
type InstalledDomainRepository interface {
	// GetByTitle returns the installed domain whose title equals the
	// supplied bare hostname regardless of its enabled flag, or
	// repository.ErrNotFound.
	GetByTitle(ctx context.Context, title string) (*domain.InstalledDomain, error)

	// GetEnabledByTitle returns the enabled installed domain whose title
	// equals the supplied bare hostname, or repository.ErrNotFound.
	GetEnabledByTitle(ctx context.Context, title string) (*domain.InstalledDomain, error)
}

// SigningKeyRepository reads the per-domain symmetric signing keys.
type SigningKeyRepository interface {
	// GetEnabledByDomainID returns the enabled signing key for the installed
	// domain, or repository.ErrNotFound.
	GetEnabledByDomainID(ctx context.Context, installedDomainID int64) (*domain.SigningKey, error)
}
