package balance

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/status"
	"github/noctiluca/go-tools/internal/util"
	"github/noctiluca/go-tools/internal/wallet"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show wallet balances on every configured chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfigFromEnv()

			provider, err := wallet.FromConfig(cfg.Wallet)
			if err != nil {
				return err
			}

			w, err := provider.Load(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to load wallet")
			}

			base, err := chain.NewService(cfg.Base, cfg.Gas)
			if err != nil {
				return err
			}
			defer base.Close()

			polygon, err := chain.NewService(cfg.Polygon, cfg.Gas)
			if err != nil {
				return err
			}
			defer polygon.Close()

			report := status.NewService(cfg, base, polygon).Balances(cmd.Context(), w.Address())

			fmt.Printf("Wallet: %s\n", report.Wallet.Hex())
			for _, chainReport := range report.Chains {
				fmt.Printf("\n=== %s ===\n", chainReport.Chain)
				printBalance(chainReport.Native)
				for _, token := range chainReport.Tokens {
					printBalance(token)
				}
			}

			return nil
		},
	}
}

func printBalance(b status.TokenBalance) {
	if b.Err != nil {
		fmt.Printf("  %-6s (error: %v)\n", b.Symbol+":", b.Err)
		return
	}
	fmt.Printf("  %-6s %s\n", b.Symbol+":", util.FormatUnits(b.Balance, b.Decimals))
}
