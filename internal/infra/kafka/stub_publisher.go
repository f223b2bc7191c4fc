package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/core/port"
	"github.com/arklim/shopfront/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	fields = append([]zap.Field{
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
	}, fields...)
	p.logger.Info("stub event published", fields...)
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logEvent(topicUserRegistered, event.RegisteredAt,
		zap.String("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

// PublishLogin logs auth.login events.
func (p *StubPublisher) PublishLogin(_ context.Context, event domain.LoginEvent) error {
	p.logEvent(topicLogin, event.OccurredAt,
		zap.String("username", event.Username),
		zap.Bool("succeeded", event.Succeeded),
		zap.String("reason", event.Reason),
		zap.String("client_ip", logger.MaskIP(event.ClientIP)),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
