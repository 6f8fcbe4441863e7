// Package ethsig verifies and produces EIP-191 personal_sign signatures.
package ethsig

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

// PersonalSignVerifier implements the SignatureVerifier interface for
// messages signed with eth personal_sign
type PersonalSignVerifier struct{}

// NewPersonalSignVerifier creates a new verifier
func NewPersonalSignVerifier() ports.SignatureVerifier {
	return PersonalSignVerifier{}
}

// Verify recovers the signer of message and compares it with address
func (PersonalSignVerifier) Verify(message, signature, address string) error {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}

	if !strings.EqualFold(recovered.Hex(), address) {
		return fmt.Errorf("recovered %s: %w", recovered.Hex(), core.ErrInvalidSignature)
	}

	return nil
}

// RecoverAddress returns the address whose key produced signature over message
func RecoverAddress(message, signature string) (common.Address, error) {
	decoded, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(decoded) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	// Wallets return V as 27/28, SigToPub wants 0/1
	sig := make([]byte, len(decoded))
	copy(sig, decoded)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id: %w", core.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// Sign produces a personal_sign signature in the wallet format (V = 27/28)
func Sign(message string, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(sig), nil
}
