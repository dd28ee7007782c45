package status

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/chain"
	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/status"
	"github/noctiluca/go-tools/internal/wallet"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the prerequisites for placing a hosting order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfigFromEnv()

			// An unconfigured wallet is a finding here, not a failure.
			var addr *common.Address
			if provider, err := wallet.FromConfig(cfg.Wallet); err == nil {
				if w, err := provider.Load(cmd.Context()); err == nil {
					a := w.Address()
					addr = &a
				} else {
					log.Debug().Err(err).Msg("No wallet available")
				}
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

			readiness := status.NewService(cfg, base, polygon).Check(cmd.Context(), addr)

			for _, check := range readiness.Checks {
				mark := "OK  "
				if !check.OK {
					mark = "FAIL"
				}
				fmt.Printf("[%s] %-16s %s\n", mark, check.Name, check.Detail)
			}

			fmt.Println()
			if readiness.Ready {
				fmt.Println("Ready: all prerequisites met, run `noctiluca vps order`.")
				return nil
			}

			fmt.Println("Not ready.")
			for i, step := range readiness.NextSteps {
				fmt.Printf("  %d. %s\n", i+1, step)
			}

			return nil
		},
	}
}
