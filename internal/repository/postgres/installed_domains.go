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

// InstalledDomainRepository implements port.InstalledDomainRepository for PostgreSQL.
type InstalledDomainRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

var _ port.InstalledDomainRepository = (*InstalledDomainRepository)(nil)

// NewInstalledDomainRepository constructs an InstalledDomainRepository.
func NewInstalledDomainRepository(pool *pgxpool.Pool) *InstalledDomainRepository {
	return &InstalledDomainRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByTitle fetches the installed domain with the given title whether or
// not it is enabled.
func (r *InstalledDomainRepository) GetByTitle(ctx context.Context, title string) (*domain.InstalledDomain, error) {
	return r.getByTitle(ctx, squirrel.Eq{"title": title})
}

// GetEnabledByTitle fetches the enabled installed domain with the given title.
func (r *InstalledDomainRepository) GetEnabledByTitle(ctx context.Context, title string) (*domain.InstalledDomain, error) {
	return r.getByTitle(ctx, squirrel.Eq{"title": title, "enabled": true})
}

func (r *InstalledDomainRepository) getByTitle(ctx context.Context, where squirrel.Eq) (*domain.InstalledDomain, error) {
	sql, args, err := r.builder.Select("id", "title", "enabled").
		From("installed_domains").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select installed domain sql: %w", err)
	}

	var d domain.InstalledDomain
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&d.ID, &d.Title, &d.Enabled); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select installed domain: %w", err)
	}

	return &d, nil
}
