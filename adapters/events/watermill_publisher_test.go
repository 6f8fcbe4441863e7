package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/universitydao/walletauth/core"
)

func TestPublishLogin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(slog.Default()))
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, LoginTopic)
	require.NoError(t, err)

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	session := &core.Session{ID: "sid-1", Address: "0xabcdef0123456789abcdef0123456789abcdef01", IssuedAt: issuedAt}
	connection := &core.WalletConnection{ConnectionCount: 4}

	require.NoError(t, NewWatermillPublisher(pubSub).PublishLogin(ctx, session, connection))

	select {
	case msg := <-messages:
		msg.Ack()

		var event LoginEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, session.Address, event.Address)
		assert.Equal(t, "sid-1", event.SessionID)
		assert.Equal(t, int64(4), event.ConnectionCount)
		assert.True(t, event.At.Equal(issuedAt))
		assert.NotEmpty(t, msg.UUID)
	case <-ctx.Done():
		t.Fatal("login event was not delivered")
	}
}

func TestPublishLogin_ClosedPublisher(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	require.NoError(t, pubSub.Close())

	err := NewWatermillPublisher(pubSub).PublishLogin(context.Background(), &core.Session{ID: "sid"}, nil)
	assert.Error(t, err)
}
