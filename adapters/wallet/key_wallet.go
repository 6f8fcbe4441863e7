// Package wallet provides a Wallet backed by a local private key, for
// command line logins and tests.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/universitydao/walletauth/adapters/ethsig"
	"github.com/universitydao/walletauth/client"
)

// KeyWallet signs with an in-process private key. It never prompts, so
// permission requests always succeed.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address string

	mu       sync.Mutex
	nextID   int
	handlers map[int]func(client.WalletEvent)
}

// NewKeyWallet wraps a private key
func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey).Hex(),
		handlers: make(map[int]func(client.WalletEvent)),
	}
}

// FromKeystore decrypts a V3 keystore file
func FromKeystore(path, passphrase string) (*KeyWallet, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}

	return NewKeyWallet(key.PrivateKey), nil
}

// FromHex parses a hex encoded private key, with or without 0x
func FromHex(hexKey string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeyWallet(key), nil
}

// Address returns the checksummed address of the key
func (w *KeyWallet) Address() string {
	return w.address
}

func (w *KeyWallet) RequestPermissions(ctx context.Context) error {
	return ctx.Err()
}

func (w *KeyWallet) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{w.address}, nil
}

func (w *KeyWallet) PersonalSign(ctx context.Context, message, address string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !strings.EqualFold(address, w.address) {
		return "", fmt.Errorf("unknown account %s", address)
	}
	return ethsig.Sign(message, w.key)
}

func (w *KeyWallet) Subscribe(handler func(client.WalletEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.handlers[id] = handler

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.handlers, id)
	}
}

// Emit delivers ev to every subscriber
func (w *KeyWallet) Emit(ev client.WalletEvent) {
	w.mu.Lock()
	handlers := make([]func(client.WalletEvent), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Lock tells subscribers the wallet no longer exposes any account
func (w *KeyWallet) Lock() {
	w.Emit(client.WalletEvent{Kind: client.EventAccountsChanged})
}
