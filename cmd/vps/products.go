package vps

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newProducts() *cobra.Command {
	return &cobra.Command{
		Use:   "products [location-id]",
		Short: "List the products available at a location",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := buildClient()
			if err != nil {
				return err
			}

			locationID := cfg.Hosting.DefaultLocationID
			if len(args) == 1 {
				locationID, err = strconv.Atoi(args[0])
				if err != nil {
					return errors.Wrapf(err, "invalid location id %q", args[0])
				}
			}

			products, err := client.ListProducts(cmd.Context(), locationID)
			if err != nil {
				return err
			}

			// Shape varies per location, print the catalog as-is.
			var pretty json.RawMessage = products
			formatted, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to format products")
			}

			fmt.Println(string(formatted))

			return nil
		},
	}
}
