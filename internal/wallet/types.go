package wallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// ErrAddressMismatch is returned when a credential source supplies an address
// that the private key does not derive to. This is a fatal configuration
// error; signing with the wrong key would burn funds.
var ErrAddressMismatch = errors.New("wallet address does not match private key")

// Wallet holds the signing identity in memory for the process lifetime. The
// key never leaves the signing boundary: it is not logged, echoed, or
// serialized anywhere in this package.
type Wallet struct {
	address common.Address
	key     *ecdsa.PrivateKey
}

// Provider supplies wallet credentials from some external source (env, file,
// vault, terminal). Implementations validate the address/key pair before
// returning it.
type Provider interface {
	// Load reads and validates the wallet credentials.
	Load(ctx context.Context) (*Wallet, error)
}

// FromKeyHex builds a Wallet from a hex encoded private key, with or without
// a 0x prefix.
func FromKeyHex(keyHex string) (*Wallet, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")

	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	return &Wallet{
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// Address returns the address derived from the private key.
func (w *Wallet) Address() common.Address {
	return w.address
}

// Key exposes the private key to the signing boundary. Callers must not
// persist or log it.
func (w *Wallet) Key() *ecdsa.PrivateKey {
	return w.key
}

// VerifyAddress checks a claimed address against the one derived from the
// key. An empty claim passes; a mismatch is fatal.
func (w *Wallet) VerifyAddress(claimed string) error {
	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return nil
	}
	if !common.IsHexAddress(claimed) {
		return errors.Errorf("invalid wallet address %q", claimed)
	}
	if common.HexToAddress(claimed) != w.address {
		return errors.Wrapf(ErrAddressMismatch, "claimed %s, derived %s", claimed, w.address.Hex())
	}

	return nil
}
