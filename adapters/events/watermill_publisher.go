package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/pitchbase/pitchbase/ports"
)

// SignupEvent is emitted when a never-seen wallet address gets an account
type SignupEvent struct {
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher   message.Publisher
	signupTopic string
	logoutTopic string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher:   publisher,
		signupTopic: "pitchbase.signup",
		logoutTopic: "pitchbase.logout",
	}
}

// PublishSignup publishes an account-created event
func (p *WatermillPublisher) PublishSignup(ctx context.Context, accountID string, address string) error {
	return p.publish(p.signupTopic, accountID, SignupEvent{
		AccountID: accountID,
		Address:   address,
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(p.logoutTopic, tokenID, LogoutEvent{
		Address: address,
		TokenID: tokenID,
	})
}

func (p *WatermillPublisher) publish(topic, id string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
