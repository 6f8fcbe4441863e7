package core

import (
	"fmt"
	"strings"
	"time"
)

// SessionTTL is the lifetime of a session token
const SessionTTL = time.Hour

// Challenge represents an issued login nonce
type Challenge struct {
	Nonce     string    // Random nonce to be signed
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the nonce stops being accepted
}

// SignedAssertion is what the wallet owner sends back after signing a challenge
type SignedAssertion struct {
	Address   string // Claimed Ethereum address, as reported by the wallet
	Nonce     string // Nonce taken from the challenge
	Signature string // Hex encoded personal_sign signature
}

// ClientInfo describes the client that completed a login
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Session represents an authenticated user session
type Session struct {
	ID        string    // Unique session identifier (jti)
	Address   string    // Lowercased Ethereum address of the user
	Issuer    string    // Token issuer
	Audience  string    // Token audience
	Nonce     string    // Nonce of the challenge the session was minted from
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session expires
}

// Expired reports whether the session is past its expiry at the given time
func (s *Session) Expired(at time.Time) bool {
	return !at.Before(s.ExpiresAt)
}

// WalletConnection tracks how often and when an address has logged in
type WalletConnection struct {
	WalletAddress   string
	ConnectionCount int64
	ConnectedAt     time.Time // First successful login
	LastConnectedAt time.Time
	UserAgent       string
	IPAddress       string
}

// ChallengeMessage builds the exact text the wallet is asked to sign
func ChallengeMessage(appName, address, nonce string) string {
	return fmt.Sprintf("%s wants you to sign in.\nWallet address: %s\nNonce: %s", appName, address, nonce)
}

// NormalizeAddress returns the canonical, lowercased form of an address
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
