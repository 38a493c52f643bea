package ports

import "context"

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishSignup(ctx context.Context, accountID string, address string) error
	PublishLogout(ctx context.Context, address string, tokenID string) error
}
