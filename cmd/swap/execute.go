package swap

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/util"
)

func newExecute() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [amount]",
		Short: "Sign and submit a sell order, for the full balance by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, cleanup, err := buildStack(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var sellAmount *big.Int
			if len(args) == 1 {
				sellAmount, err = util.ParseUnits(args[0], cfg.Swap.SellToken.Decimals)
				if err != nil {
					return err
				}
			}

			report, err := svc.Execute(cmd.Context(), sellAmount)
			if err != nil {
				return err
			}

			if report.NothingToSwap {
				fmt.Println("Nothing to swap.")
				return nil
			}

			fmt.Printf("Order submitted: %s %s -> %s %s\n",
				util.FormatUnits(report.Quote.SellAmount, cfg.Swap.SellToken.Decimals), cfg.Swap.SellToken.Symbol,
				util.FormatUnits(report.Quote.BuyAmount, cfg.Swap.BuyToken.Decimals), cfg.Swap.BuyToken.Symbol)
			fmt.Printf("UID: %s\n", report.OrderUID)
			fmt.Printf("Track: %s\n", report.ExplorerURL)

			return nil
		},
	}
}
