package port

import (
	"context"

	"github.com/aldergrove/cms-auth/internal/core/domain"
)

// EventPublisher publishes auth lifecycle events to the message bus.
type EventPublisher interface {
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishLogout(ctx context.Context, event domain.LogoutEvent) error
	PublishTokenRejected(ctx context.Context, event domain.TokenRejectedEvent) error
}
