package bridge

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/util"
)

func newQuote() *cobra.Command {
	return &cobra.Command{
		Use:   "quote [amount]",
		Short: "Preview a bridge transfer, for the full balance minus dust by default",
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

			report, err := svc.Quote(cmd.Context(), amount)
			if err != nil {
				return err
			}

			input := cfg.Bridge.InputToken
			output := cfg.Bridge.OutputToken

			fmt.Printf("Wallet:  %s\n", report.Wallet.Hex())
			fmt.Printf("%s:     %s\n", cfg.Base.NativeSymbol, util.FormatUnits(report.NativeBalance, cfg.NativeBase.Decimals))
			fmt.Printf("%s:    %s\n", input.Symbol, util.FormatUnits(report.TokenBalance, input.Decimals))
			fmt.Printf("\nBridging %s %s (%s -> %s)\n",
				util.FormatUnits(report.BridgeAmount, input.Decimals), input.Symbol,
				cfg.Base.Name, cfg.Polygon.Name)
			fmt.Printf("Expected output: %s %s\n", util.FormatUnits(report.ExpectedOutput, output.Decimals), output.Symbol)
			fmt.Printf("Plan: %d approval(s) + 1 deposit\n", report.ApprovalCount)

			return nil
		},
	}
}
