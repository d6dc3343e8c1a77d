package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/repository"
)

// LoginRepository implements port.LoginRepository for PostgreSQL.
type LoginRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

var _ port.LoginRepository = (*LoginRepository)(nil)

// NewLoginRepository constructs a LoginRepository.
func NewLoginRepository(pool *pgxpool.Pool) *LoginRepository {
	return &LoginRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a login record and fills in its generated ID.
func (r *LoginRepository) Create(ctx context.Context, login *domain.Login) error {
	sql, args, err := r.builder.Insert("logins").
		Columns("personbydomain_id", "token", "uuid", "created_at", "created_by", "updated_at", "updated_by").
		Values(login.PersonID, login.Token, login.UUID, login.CreatedAt, login.CreatedBy, login.UpdatedAt, login.UpdatedBy).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert login sql: %w", err)
	}

	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&login.ID); err != nil {
		return fmt.Errorf("insert login: %w", err)
	}

	return nil
}

// GetByToken fetches the login record carrying the token.
func (r *LoginRepository) GetByToken(ctx context.Context, token string) (*domain.Login, error) {
	sql, args, err := r.builder.Select("id", "personbydomain_id", "token", "uuid", "created_at", "created_by", "updated_at", "updated_by").
		From("logins").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select login sql: %w", err)
	}

	var l domain.Login
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(
		&l.ID, &l.PersonID, &l.Token, &l.UUID,
		&l.CreatedAt, &l.CreatedBy, &l.UpdatedAt, &l.UpdatedBy,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select login: %w", err)
	}

	return &l, nil
}

// Touch refreshes the record's activity timestamp in a single statement so
// concurrent refreshes of the same login cannot interleave reads and writes.
// A record that no longer exists reports repository.ErrNotFound.
func (r *LoginRepository) Touch(ctx context.Context, token string, personID int64, at time.Time) error {
	sql, args, err := r.builder.Update("logins").
		Set("updated_at", at).
		Set("updated_by", personID).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch login sql: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByToken removes the login record carrying the token. An already
// absent record is not an error.
func (r *LoginRepository) DeleteByToken(ctx context.Context, token string) error {
	sql, args, err := r.builder.Delete("logins").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete login sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete login: %w", err)
	}

	return nil
}

// DeleteByPerson removes every login record belonging to the person.
func (r *LoginRepository) DeleteByPerson(ctx context.Context, personID int64) error {
	sql, args, err := r.builder.Delete("logins").
		Where(squirrel.Eq{"personbydomain_id": personID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete person logins sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete person logins: %w", err)
	}

	return nil
}

// DeleteInactiveSince removes login records with no activity since the
// cutoff and returns how many were deleted.
func (r *LoginRepository) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	sql, args, err := r.builder.Delete("logins").
		Where(squirrel.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete inactive logins sql: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete inactive logins: %w", err)
	}

	return tag.RowsAffected(), nil
}
