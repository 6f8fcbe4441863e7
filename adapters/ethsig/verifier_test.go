package ethsig

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/universitydao/walletauth/core"
)

const testMessage = "UniversityDAO wants you to sign in.\nWallet address: 0x0\nNonce: 0123456789abcdef"

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := Sign(testMessage, key)
	require.NoError(t, err)

	addr, err := RecoverAddress(testMessage, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)
}

func TestVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	sig, err := Sign(testMessage, key)
	require.NoError(t, err)

	v := NewPersonalSignVerifier()

	t.Run("checksummed address", func(t *testing.T) {
		assert.NoError(t, v.Verify(testMessage, sig, address))
	})

	t.Run("lowercase address", func(t *testing.T) {
		assert.NoError(t, v.Verify(testMessage, sig, core.NormalizeAddress(address)))
	})

	t.Run("different key", func(t *testing.T) {
		otherSig, err := Sign(testMessage, other)
		require.NoError(t, err)
		assert.ErrorIs(t, v.Verify(testMessage, otherSig, address), core.ErrInvalidSignature)
	})

	t.Run("different message", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(testMessage+"x", sig, address), core.ErrInvalidSignature)
	})
}

func TestRecoverAddress_RawRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := Sign(testMessage, key)
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	raw[crypto.RecoveryIDOffset] -= 27

	addr, err := RecoverAddress(testMessage, hexutil.Encode(raw))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)
}

func TestRecoverAddress_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		signature string
	}{
		{"not hex", "hello"},
		{"missing prefix", "abcdef"},
		{"too short", "0x1234"},
		{"bad recovery id", hexutil.Encode(append(make([]byte, 64), 5))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RecoverAddress(testMessage, tc.signature)
			assert.ErrorIs(t, err, core.ErrInvalidSignature)
		})
	}
}
