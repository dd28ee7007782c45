package swap

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	swapsvc "github/noctiluca/go-tools/internal/swap"
	"github/noctiluca/go-tools/internal/txbuilder"
	"github/noctiluca/go-tools/internal/util/command"
	"github/noctiluca/go-tools/internal/wallet"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("swap",
		newQuote(),
		newApprove(),
		newExecute(),
	)
}

// buildStack wires the full swap workflow: wallet, origin chain
// connectivity, transaction building, the exchange API client and the order
// signer. The returned cleanup closes all RPC connections.
func buildStack(ctx context.Context) (swapsvc.Service, config.Config, func(), error) {
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
	api := swapsvc.NewAPIClient(cfg.Swap)
	signer := swapsvc.NewTypedOrderSigner(cfg.Base.ChainID, common.HexToAddress(cfg.Swap.Settlement))

	svc := swapsvc.NewService(cfg.Swap, cfg.Gas, chainService, builder, api, api, signer, w)

	return svc, cfg, chainService.Close, nil
}
