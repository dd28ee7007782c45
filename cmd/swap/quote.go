package swap

import (
	"fmt"

	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/util"
)

func newQuote() *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Preview balances, allowance and the current swap quote",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, cleanup, err := buildStack(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := svc.Quote(cmd.Context())
			if err != nil {
				return err
			}

			sell := cfg.Swap.SellToken
			buy := cfg.Swap.BuyToken

			fmt.Printf("Wallet:    %s\n", report.Wallet.Hex())
			fmt.Printf("%s:       %s\n", cfg.Base.NativeSymbol, util.FormatUnits(report.NativeBalance, cfg.NativeBase.Decimals))
			fmt.Printf("%s:      %s\n", sell.Symbol, util.FormatUnits(report.SellBalance, sell.Decimals))
			fmt.Printf("Allowance: %s\n", util.FormatUnits(report.Allowance, sell.Decimals))

			if report.NothingToSwap {
				fmt.Println("\nNothing to swap.")
				return nil
			}

			fmt.Printf("\nQuote: %s %s -> %s %s (valid until %d)\n",
				util.FormatUnits(report.Quote.SellAmount, sell.Decimals), sell.Symbol,
				util.FormatUnits(report.Quote.BuyAmount, buy.Decimals), buy.Symbol,
				report.Quote.ValidTo)

			if report.NeedsApproval {
				fmt.Println("Approval needed before executing: run `noctiluca swap approve`.")
			}

			return nil
		},
	}
}
