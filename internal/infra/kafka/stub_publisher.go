package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishLoginSucceeded logs auth.login.succeeded events.
func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.logEvent("auth.login.succeeded", event.LoggedInAt, map[string]any{
		"person_id":  event.PersonID,
		"login_uuid": event.LoginUUID,
		"two_factor": event.TwoFactor,
	})
	return nil
}

// PublishLoginFailed logs auth.login.failed events.
func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.logEvent("auth.login.failed", event.FailedAt, map[string]any{
		"reason": event.Reason,
	})
	return nil
}

// PublishLogout logs auth.logout events.
func (p *StubPublisher) PublishLogout(_ context.Context, event domain.LogoutEvent) error {
	p.logEvent("auth.logout", event.LoggedOutAt, map[string]any{
		"person_id": event.PersonID,
		"forced":    event.Forced,
	})
	return nil
}

// PublishTokenRejected logs auth.token.rejected events.
func (p *StubPublisher) PublishTokenRejected(_ context.Context, event domain.TokenRejectedEvent) error {
	p.logEvent("auth.token.rejected", event.RejectedAt, map[string]any{
		"requesting_domain": event.RequestingDomain,
		"claim":             event.Claim,
	})
	return nil
}
