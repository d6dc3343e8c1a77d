package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/repository"
)

// SigningKeyRepository implements port.SigningKeyRepository for PostgreSQL.
type SigningKeyRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

var _ port.SigningKeyRepository = (*SigningKeyRepository)(nil)

// NewSigningKeyRepository constructs a SigningKeyRepository.
func NewSigningKeyRepository(pool *pgxpool.Pool) *SigningKeyRepository {
	return &SigningKeyRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetEnabledByDomainID fetches the enabled signing key for an installed
// domain. A domain carries at most one enabled key at a time; should more
// than one exist the newest wins.
func (r *SigningKeyRepository) GetEnabledByDomainID(ctx context.Context, domainID int64) (*domain.SigningKey, error) {
	sql, args, err := r.builder.Select("id", "installed_domain_id", "key", "enabled").
		From("installed_domains_jwt_keys").
		Where(squirrel.Eq{"installed_domain_id": domainID, "enabled": true}).
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select signing key sql: %w", err)
	}

	var k domain.SigningKey
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&k.ID, &k.InstalledDomainID, &k.Key, &k.Enabled); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select signing key: %w", err)
	}

	return &k, nil
}
