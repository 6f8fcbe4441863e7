package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallengeMessage(t *testing.T) {
	msg := ChallengeMessage("UniversityDAO", "0xAbC0000000000000000000000000000000000001", "nonce-1234567")
	assert.Equal(t, "UniversityDAO wants you to sign in.\nWallet address: 0xAbC0000000000000000000000000000000000001\nNonce: nonce-1234567", msg)
}

func TestSessionExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := &Session{IssuedAt: now, ExpiresAt: now.Add(SessionTTL)}

	assert.False(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(SessionTTL-time.Second)))
	assert.True(t, s.Expired(now.Add(SessionTTL)))
}
