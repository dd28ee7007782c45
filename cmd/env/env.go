package env

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/internal/config"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the effective config, secrets redacted",
		Run: func(_ *cobra.Command, _ []string) {
			printConfig()
		},
	}
}

func printConfig() {
	cfg := config.DefaultConfigFromEnv()

	if cfg.Wallet.Vault.Token != "" {
		cfg.Wallet.Vault.Token = "<redacted>"
	}

	c, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config")
	}

	fmt.Println(string(c))
}
