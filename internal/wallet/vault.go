package wallet

import (
	"context"

	vault "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/config"
)

// VaultProvider reads wallet credentials from a HashiCorp Vault KV v2 secret
// holding a "private_key" field and an optional "address" field.
type VaultProvider struct {
	client     *vault.Client
	mountPath  string
	secretPath string
}

func NewVaultProvider(cfg config.Vault) (*VaultProvider, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vault client")
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &VaultProvider{
		client:     client,
		mountPath:  cfg.MountPath,
		secretPath: cfg.SecretPath,
	}, nil
}

func (p *VaultProvider) Load(ctx context.Context) (*Wallet, error) {
	secret, err := p.client.KVv2(p.mountPath).Get(ctx, p.secretPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read wallet secret from vault")
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.Wrapf(ErrNoCredentials, "vault secret %s/%s is empty", p.mountPath, p.secretPath)
	}

	keyHex, ok := secret.Data["private_key"].(string)
	if !ok || keyHex == "" {
		return nil, errors.Wrapf(ErrNoCredentials, "vault secret %s/%s has no private_key", p.mountPath, p.secretPath)
	}

	w, err := FromKeyHex(keyHex)
	if err != nil {
		return nil, err
	}

	if address, ok := secret.Data["address"].(string); ok {
		if err := w.VerifyAddress(address); err != nil {
			return nil, err
		}
	}

	return w, nil
}
