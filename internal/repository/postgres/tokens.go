package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// TokenRecordRepository implements port.TokenRecordRepository for PostgreSQL.
// The json_web_tokens table carries a unique constraint on the token text;
// that constraint is what makes Record atomic under concurrent presentation
// of the same token.
type TokenRecordRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

var _ port.TokenRecordRepository = (*TokenRecordRepository)(nil)

// NewTokenRecordRepository constructs a TokenRecordRepository.
func NewTokenRecordRepository(pool *pgxpool.Pool) *TokenRecordRepository {
	return &TokenRecordRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Exists reports whether the token has already been recorded.
func (r *TokenRecordRepository) Exists(ctx context.Context, token string) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From("json_web_tokens").
		Where(squirrel.Eq{"jwt": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select token record sql: %w", err)
	}

	var one int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("select token record: %w", err)
	}

	return true, nil
}

// Record inserts the token. A unique constraint violation means another
// request recorded the same token first and is reported as
// repository.ErrDuplicate.
func (r *TokenRecordRepository) Record(ctx context.Context, token string, at time.Time) error {
	sql, args, err := r.builder.Insert("json_web_tokens").
		Columns("jwt", "created_at").
		Values(token, at).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert token record sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert token record: %w", err)
	}

	return nil
}

// DeleteOlderThan removes token records created before the cutoff and
// returns how many were deleted.
func (r *TokenRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	sql, args, err := r.builder.Delete("json_web_tokens").
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete token records sql: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete token records: %w", err)
	}

	return tag.RowsAffected(), nil
}
