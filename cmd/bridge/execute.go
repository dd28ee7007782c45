package bridge

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/util"
)

func newExecute() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [amount]",
		Short: "Run the bridge plan: approvals in order, then the deposit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, cleanup, err := buildStack(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var amount *big.Int
			if len(args) == 1 {
				amount, err = util.ParseUnits(args[0], cfg.Bridge.InputToken.Decimals)
				if err != nil {
					return err
				}
			}

			report, execErr := svc.Execute(cmd.Context(), amount)
			if report == nil {
				return execErr
			}

			for _, tx := range report.Transactions {
				state := "confirmed"
				if tx.Reverted {
					state = "REVERTED"
				}
				fmt.Printf("%-14s %s (block %d, gas %d)\n", tx.Step+":", state, tx.BlockNumber, tx.GasUsed)
				fmt.Printf("               %s\n", tx.ExplorerURL)
			}

			if execErr != nil {
				return execErr
			}

			fmt.Printf("\nBridged %s %s, expected %s %s on %s\n",
				util.FormatUnits(report.BridgeAmount, cfg.Bridge.InputToken.Decimals), cfg.Bridge.InputToken.Symbol,
				util.FormatUnits(report.ExpectedOutput, cfg.Bridge.OutputToken.Decimals), cfg.Bridge.OutputToken.Symbol,
				cfg.Polygon.Name)

			return nil
		},
	}
}
