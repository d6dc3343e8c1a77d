package port

import (
	"context"

	"github.com/aldergrove/cms-auth/internal/core/domain"
)

// TwoFactorRepository stores the ephemeral 2FA challenge codes, one per email.
type TwoFactorRepository interface {
	// Replace deletes any prior code for the email and stores the new one
	// with a zeroed attempt counter.
	Replace(ctx context.Context, code *domain.TwoFactorCode) error

	// Get returns the current code for the email, or repository.ErrNotFound.
	Get(ctx context.Context, email string) (*domain.TwoFactorCode, error)

	// IncrementAttempts bumps the validation attempt counter and returns the
	// new total. Failed and expired checks count too.
	IncrementAttempts(ctx context.Context, email string) (int, error)

	// Delete removes the code for the email. Absence is not an error.
	Delete(ctx context.Context, email string) error
}
