package port

import (
	"context"

	"github.com/aldergrove/cms-auth/internal/core/domain"
)

// PersonRepository reads admin-backend accounts.
type PersonRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
}
