package command

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewSubcommandGroup groups subcommands under a common parent that only
// prints its own help when invoked bare.
func NewSubcommandGroup(groupName string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   groupName,
		Short: fmt.Sprintf("Collection of %s subcommands", groupName),
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("Failed to print help")
			}

			os.Exit(0)
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}
