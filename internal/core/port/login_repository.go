package port

import (
	"context"
	"time"

	"github.com/aldergrove/cms-auth/internal/core/domain"
)

// LoginRepository persists the server-side logins ledger. Ledger rows, not
// session cookies, are the source of truth for who is logged in.
type LoginRepository interface {
	// Create inserts a logins row, filling in the assigned id.
	Create(ctx context.Context, login *domain.Login) error

	// GetByToken returns the row holding the opaque login token, or
	// repository.ErrNotFound when the session has been revoked.
	GetByToken(ctx context.Context, token string) (*domain.Login, error)

	// Touch refreshes updated_at/updated_by on the row holding the token in
	// a single statement, implementing sliding expiry without a read-modify-
	// write race. Returns repository.ErrNotFound when no row matches.
	Touch(ctx context.Context, token string, personID int64, at time.Time) error

	// DeleteByToken removes the row holding the token, logging that session
	// out. Deleting an absent row is not an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByPerson removes every row for the person, logging them out of
	// all devices at once.
	DeleteByPerson(ctx context.Context, personID int64) error

	// DeleteInactiveSince removes rows whose updated_at predates the cutoff.
	DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}
