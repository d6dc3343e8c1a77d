package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/domain"
	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishLoginSucceeded publishes auth.login.succeeded events.
func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := struct {
		PersonID   int64     `json:"person_id"`
		Email      string    `json:"email"`
		LoginUUID  string    `json:"login_uuid"`
		LoggedInAt time.Time `json:"logged_in_at"`
		IPAddress  string    `json:"ip_address,omitempty"`
		TwoFactor  bool      `json:"two_factor"`
	}{
		PersonID:   event.PersonID,
		Email:      event.Email,
		LoginUUID:  event.LoginUUID,
		LoggedInAt: event.LoggedInAt.UTC(),
		IPAddress:  event.IPAddress,
		TwoFactor:  event.TwoFactor,
	}

	return p.publish(ctx, event.EventID, "auth.login.succeeded", event.LoggedInAt, payload)
}

// PublishLoginFailed publishes auth.login.failed events.
func (p *EventPublisher) PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error {
	payload := struct {
		Email     string    `json:"email"`
		FailedAt  time.Time `json:"failed_at"`
		IPAddress string    `json:"ip_address,omitempty"`
		Reason    string    `json:"reason"`
	}{
		Email:     event.Email,
		FailedAt:  event.FailedAt.UTC(),
		IPAddress: event.IPAddress,
		Reason:    event.Reason,
	}

	return p.publish(ctx, event.EventID, "auth.login.failed", event.FailedAt, payload)
}

// PublishLogout publishes auth.logout events.
func (p *EventPublisher) PublishLogout(ctx context.Context, event domain.LogoutEvent) error {
	payload := struct {
		PersonID    int64     `json:"person_id"`
		LoggedOutAt time.Time `json:"logged_out_at"`
		Forced      bool      `json:"forced"`
		Reason      string    `json:"reason,omitempty"`
	}{
		PersonID:    event.PersonID,
		LoggedOutAt: event.LoggedOutAt.UTC(),
		Forced:      event.Forced,
		Reason:      event.Reason,
	}

	return p.publish(ctx, event.EventID, "auth.logout", event.LoggedOutAt, payload)
}

// PublishTokenRejected publishes auth.token.rejected events.
func (p *EventPublisher) PublishTokenRejected(ctx context.Context, event domain.TokenRejectedEvent) error {
	payload := struct {
		RequestingDomain string    `json:"requesting_domain,omitempty"`
		Claim            string    `json:"claim"`
		RejectedAt       time.Time `json:"rejected_at"`
	}{
		RequestingDomain: event.RequestingDomain,
		Claim:            event.Claim,
		RejectedAt:       event.RejectedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.token.rejected", event.RejectedAt, payload)
}
