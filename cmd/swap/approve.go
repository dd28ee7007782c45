package swap

import (
	"fmt"

	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/util"
)

func newApprove() *cobra.Command {
	return &cobra.Command{
		Use:   "approve",
		Short: "Grant the settlement spender a one-time max allowance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, cleanup, err := buildStack(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := svc.Approve(cmd.Context())
			if err != nil {
				return err
			}

			if report.AlreadyApproved {
				fmt.Printf("Allowance already set (%s %s), nothing to do.\n",
					util.FormatUnits(report.NewAllowance, cfg.Swap.SellToken.Decimals), cfg.Swap.SellToken.Symbol)
				return nil
			}

			fmt.Printf("Approval confirmed in block %d (gas used %d)\n", report.BlockNumber, report.GasUsed)
			fmt.Printf("TX: %s\n", report.ExplorerURL)

			return nil
		},
	}
}
