package ports

import (
	"context"

	"github.com/universitydao/walletauth/core"
)

// EventPublisher publishes events to notify other services
type EventPublisher interface {
	PublishLogin(ctx context.Context, session *core.Session, connection *core.WalletConnection) error
}
