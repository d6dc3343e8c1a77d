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

// PersonRepository implements port.PersonRepository for PostgreSQL.
type PersonRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

var _ port.PersonRepository = (*PersonRepository)(nil)

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(pool *pgxpool.Pool) *PersonRepository {
	return &PersonRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID fetches a person by primary key.
func (r *PersonRepository) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByEmail fetches a person by email.
func (r *PersonRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

func (r *PersonRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Person, error) {
	sql, args, err := r.builder.Select("id", "email", "password", "banned", "created_at").
		From("personbydomains").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select person sql: %w", err)
	}

	var p domain.Person
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Banned, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select person: %w", err)
	}

	return &p, nil
}
