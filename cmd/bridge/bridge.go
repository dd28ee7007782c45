package bridge

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	bridgesvc "github/noctiluca/go-tools/internal/bridge"
	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/txbuilder"
	"github/noctiluca/go-tools/internal/util/command"
	"github/noctiluca/go-tools/internal/wallet"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("bridge",
		newQuote(),
		newExecute(),
	)
}

// buildStack wires the bridge workflow against the origin chain. The
// returned cleanup closes all RPC connections.
func buildStack(ctx context.Context) (bridgesvc.Service, config.Config, func(), error) {
	cfg := config.DefaultConfigFromEnv()

	provider, err := wallet.FromConfig(cfg.Wallet)
	if err != nil {
		return nil, cfg, nil, err
	}

	w, err := provider.Load(ctx)
	if err != nil {
		return nil, cfg, nil, errors.Wrap(err, "failed to load wallet")
	}

	chainService, err := chain.NewService(cfg.Base, cfg.Gas)
	if err != nil {
		return nil, cfg, nil, err
	}

	builder := txbuilder.NewService(chainService, cfg.Gas)
	api := bridgesvc.NewAPIClient(cfg.Bridge, cfg.Base.ChainID)

	svc := bridgesvc.NewService(cfg.Bridge, cfg.Gas, chainService, builder, api, w)

	return svc, cfg, chainService.Close, nil
}
