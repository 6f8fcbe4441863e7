package wallet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/universitydao/walletauth/adapters/ethsig"
	"github.com/universitydao/walletauth/client"
)

func TestKeyWallet_SignsRecoverably(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := NewKeyWallet(key)

	accounts, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{w.Address()}, accounts)

	sig, err := w.PersonalSign(context.Background(), "hello", w.Address())
	require.NoError(t, err)

	addr, err := ethsig.RecoverAddress("hello", sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), addr.Hex())
}

func TestKeyWallet_UnknownAccount(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewKeyWallet(key).PersonalSign(context.Background(), "hello", "0x0000000000000000000000000000000000000001")
	assert.Error(t, err)
}

func TestKeyWallet_CancelledContext(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := NewKeyWallet(key)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.PersonalSign(ctx, "hello", w.Address())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyWallet_Subscribe(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := NewKeyWallet(key)

	var got []client.WalletEvent
	unsubscribe := w.Subscribe(func(ev client.WalletEvent) { got = append(got, ev) })

	w.Lock()
	unsubscribe()
	w.Lock()

	require.Len(t, got, 1)
	assert.Equal(t, client.EventAccountsChanged, got[0].Kind)
	assert.Empty(t, got[0].Accounts)
}

func TestFromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	w, err := FromHex(hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), w.Address())

	_, err = FromHex("zz")
	assert.Error(t, err)
}

func TestFromKeystore(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	k := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}
	keyJSON, err := keystore.EncryptKey(k, "passphrase", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, keyJSON, 0o600))

	w, err := FromKeystore(path, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, k.Address.Hex(), w.Address())

	_, err = FromKeystore(path, "wrong")
	assert.Error(t, err)
}
