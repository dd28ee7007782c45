package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/noctiluca/go-tools/cmd/balance"
	"github/noctiluca/go-tools/cmd/bridge"
	"github/noctiluca/go-tools/cmd/env"
	"github/noctiluca/go-tools/cmd/status"
	"github/noctiluca/go-tools/cmd/swap"
	"github/noctiluca/go-tools/cmd/vps"
	"github/noctiluca/go-tools/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "noctiluca",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Transaction tooling for funding a hosting order: gasless token swaps,
cross-chain bridging, balances and readiness checks.
Requires configuration through ENV.`, config.ModuleName),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureLogger(config.DefaultConfigFromEnv().Logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		balance.New(),
		bridge.New(),
		env.New(),
		status.New(),
		swap.New(),
		vps.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		zlog.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}

func configureLogger(cfg config.Logger) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.PrettyPrintConsole {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
