package port

import (
	"context"

	"github.com/arklim/shopfront/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishLogin(ctx context.Context, event domain.LoginEvent) error
}
