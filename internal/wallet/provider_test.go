package wallet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/wallet"
)

// Throwaway key, never funded.
const (
	testKeyHex  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func TestFromKeyHex(t *testing.T) {
	w, err := wallet.FromKeyHex(testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, testAddress, w.Address().Hex())

	// 0x prefix is accepted
	w2, err := wallet.FromKeyHex("0x" + testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), w2.Address())
}

func TestFromKeyHexRejectsGarbage(t *testing.T) {
	_, err := wallet.FromKeyHex("not-a-key")
	require.Error(t, err)
}

func TestVerifyAddress(t *testing.T) {
	w, err := wallet.FromKeyHex(testKeyHex)
	require.NoError(t, err)

	require.NoError(t, w.VerifyAddress(testAddress))
	require.NoError(t, w.VerifyAddress("")) // empty claim passes

	err = w.VerifyAddress("0x0000000000000000000000000000000000000001")
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrAddressMismatch)
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("TEST_WALLET_KEY", testKeyHex)

	provider := &wallet.EnvProvider{Var: "TEST_WALLET_KEY"}
	w, err := provider.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testAddress, w.Address().Hex())
}

func TestEnvProviderUnset(t *testing.T) {
	provider := &wallet.EnvProvider{Var: "TEST_WALLET_KEY_UNSET"}
	_, err := provider.Load(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrNoCredentials)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evm_wallet.txt")
	content := "Address: " + testAddress + "\nPrivate Key: " + testKeyHex + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	provider := &wallet.FileProvider{Path: path}
	w, err := provider.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testAddress, w.Address().Hex())
}

func TestFileProviderAddressMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evm_wallet.txt")
	content := "Address: 0x0000000000000000000000000000000000000001\nPrivate Key: " + testKeyHex + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	provider := &wallet.FileProvider{Path: path}
	_, err := provider.Load(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrAddressMismatch)
}

func TestFileProviderMissingFile(t *testing.T) {
	provider := &wallet.FileProvider{Path: filepath.Join(t.TempDir(), "nope.txt")}
	_, err := provider.Load(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrNoCredentials)
}

func TestChainFallsThrough(t *testing.T) {
	t.Setenv("TEST_WALLET_KEY_CHAIN", testKeyHex)

	provider := wallet.Chain(
		&wallet.EnvProvider{Var: "TEST_WALLET_KEY_UNSET"},
		&wallet.EnvProvider{Var: "TEST_WALLET_KEY_CHAIN"},
	)

	w, err := provider.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testAddress, w.Address().Hex())
}

func TestChainStopsOnFatalError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evm_wallet.txt")
	content := "Address: 0x0000000000000000000000000000000000000001\nPrivate Key: " + testKeyHex + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TEST_WALLET_KEY_LATER", testKeyHex)

	// The mismatch in the file must not be masked by the later source.
	provider := wallet.Chain(
		&wallet.FileProvider{Path: path},
		&wallet.EnvProvider{Var: "TEST_WALLET_KEY_LATER"},
	)

	_, err := provider.Load(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrAddressMismatch)
}

func TestFromConfigUnknownProvider(t *testing.T) {
	_, err := wallet.FromConfig(config.Wallet{Provider: "hsm"})
	require.Error(t, err)
}
