package vps

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLocations() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the provider's datacenter locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := buildClient()
			if err != nil {
				return err
			}

			locations, err := client.ListLocations(cmd.Context())
			if err != nil {
				return err
			}

			for _, loc := range locations {
				stock := ""
				if loc.OutOfStock {
					stock = " (out of stock)"
				}
				fmt.Printf("[%3d] %s (%s)%s\n", loc.ID, loc.Name, loc.Country, stock)
			}

			fmt.Printf("\nDefault location id: %d\n", cfg.Hosting.DefaultLocationID)

			return nil
		},
	}
}
