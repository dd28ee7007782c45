package vps

import (
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/config"
	"github/noctiluca/go-tools/internal/hosting"
	"github/noctiluca/go-tools/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("vps",
		newLocations(),
		newProducts(),
		newPaymentMethods(),
		newOrder(),
	)
}

func buildClient() (*hosting.Client, config.Config, error) {
	cfg := config.DefaultConfigFromEnv()

	creds, err := hosting.LoadCredentials(cfg.Hosting.CredentialsFile)
	if err != nil {
		return nil, cfg, err
	}

	return hosting.NewClient(cfg.Hosting, creds), cfg, nil
}
