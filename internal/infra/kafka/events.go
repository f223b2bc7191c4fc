package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	topicUserRegistered = "auth.user.registered"
	topicLogin          = "auth.login"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
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

// PublishUserRegistered publishes auth.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email,omitempty"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, topicUserRegistered, event.RegisteredAt, payload)
}

// PublishLogin publishes auth.login events for successful and failed attempts.
func (p *EventPublisher) PublishLogin(ctx context.Context, event domain.LoginEvent) error {
	payload := struct {
		Username   string    `json:"username"`
		Succeeded  bool      `json:"succeeded"`
		Reason     string    `json:"reason,omitempty"`
		ClientIP   string    `json:"client_ip,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		Username:   event.Username,
		Succeeded:  event.Succeeded,
		Reason:     event.Reason,
		ClientIP:   event.ClientIP,
		OccurredAt: event.OccurredAt.UTC(),
	}

	return p.publish(ctx, topicLogin, event.OccurredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
