package wallet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github/noctiluca/go-tools/internal/config"
)

// ErrNoCredentials signals that a provider found no key material at its
// source. Chained providers move on to the next source on this error.
var ErrNoCredentials = errors.New("no wallet credentials found")

// EnvProvider reads a hex private key from an environment variable.
type EnvProvider struct {
	Var string
}

func (p *EnvProvider) Load(_ context.Context) (*Wallet, error) {
	keyHex := os.Getenv(p.Var)
	if strings.TrimSpace(keyHex) == "" {
		return nil, errors.Wrapf(ErrNoCredentials, "env %s is not set", p.Var)
	}

	return FromKeyHex(keyHex)
}

// FileProvider reads credentials from a flat text file with "Address:" and
// "Private Key:" lines. This matches the external wallet file format; the
// address line, when present, must match the key.
type FileProvider struct {
	Path string
}

func (p *FileProvider) Load(_ context.Context) (*Wallet, error) {
	content, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoCredentials, "no wallet file at %s", p.Path)
		}
		return nil, errors.Wrap(err, "failed to read wallet file")
	}

	var keyHex, address string
	for _, line := range strings.Split(string(content), "\n") {
		switch {
		case strings.HasPrefix(line, "Private Key:"):
			keyHex = strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
		case strings.HasPrefix(line, "Address:"):
			address = strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
		}
	}

	if keyHex == "" {
		return nil, errors.Wrapf(ErrNoCredentials, "no private key line in %s", p.Path)
	}

	w, err := FromKeyHex(keyHex)
	if err != nil {
		return nil, err
	}
	if err := w.VerifyAddress(address); err != nil {
		return nil, err
	}

	return w, nil
}

// PromptProvider asks for the key on the terminal without echoing it.
type PromptProvider struct{}

func (p *PromptProvider) Load(_ context.Context) (*Wallet, error) {
	fmt.Fprint(os.Stderr, "Private key (hex): ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read private key from terminal")
	}

	return FromKeyHex(string(keyBytes))
}

// chainProvider tries each provider in order, moving on only when a source
// has no credentials at all.
type chainProvider struct {
	providers []Provider
}

func (p *chainProvider) Load(ctx context.Context) (*Wallet, error) {
	lastErr := error(ErrNoCredentials)
	for _, provider := range p.providers {
		w, err := provider.Load(ctx)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, ErrNoCredentials) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// Chain combines providers into one that returns the first available wallet.
//
//nolint:ireturn
func Chain(providers ...Provider) Provider {
	return &chainProvider{providers: providers}
}

// FromConfig selects the provider per configuration. The default consults
// the env var before the credential file.
//
//nolint:ireturn
func FromConfig(cfg config.Wallet) (Provider, error) {
	switch cfg.Provider {
	case "env":
		return &EnvProvider{Var: cfg.KeyEnv}, nil
	case "file", "":
		return Chain(&EnvProvider{Var: cfg.KeyEnv}, &FileProvider{Path: cfg.KeyFile}), nil
	case "vault":
		return NewVaultProvider(cfg.Vault)
	case "prompt":
		return Chain(&EnvProvider{Var: cfg.KeyEnv}, &FileProvider{Path: cfg.KeyFile}, &PromptProvider{}), nil
	default:
		return nil, errors.Errorf("unknown wallet provider %q", cfg.Provider)
	}
}
