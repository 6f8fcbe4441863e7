package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

// LoginTopic is the topic login events are published to
const LoginTopic = "unidao.auth.login"

// LoginEvent represents a successful wallet login
type LoginEvent struct {
	Address         string    `json:"address"`
	SessionID       string    `json:"session_id"`
	ConnectionCount int64     `json:"connection_count"`
	At              time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     LoginTopic,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, session *core.Session, connection *core.WalletConnection) error {
	event := LoginEvent{
		Address:   session.Address,
		SessionID: session.ID,
		At:        session.IssuedAt,
	}
	if connection != nil {
		event.ConnectionCount = connection.ConnectionCount
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, *core.Session, *core.WalletConnection) error {
	return nil
}
