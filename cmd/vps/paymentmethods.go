package vps

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPaymentMethods() *cobra.Command {
	return &cobra.Command{
		Use:   "payment-methods",
		Short: "List payment methods the account can order with",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := buildClient()
			if err != nil {
				return err
			}

			methods, err := client.ListPaymentMethods(cmd.Context())
			if err != nil {
				return err
			}

			for _, method := range methods {
				marker := " "
				if method == cfg.Hosting.PaymentMethod {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, method)
			}

			return nil
		},
	}
}
