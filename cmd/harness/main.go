package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MinterTeam/minter-harness/cmd/harness/cmd"
	"github.com/MinterTeam/minter-harness/cmd/utils"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := cmd.RootCmd
	rootCmd.PersistentFlags().StringVar(&utils.HarnessHome, "home-dir", "", "base dir (default is $HOME/.minter-harness)")
	rootCmd.PersistentFlags().StringVar(&utils.HarnessConfig, "config", "", "path to config (default is $(home-dir)/config/config.toml)")

	rootCmd.AddCommand(
		cmd.Deploy,
		cmd.Templates,
		cmd.Serve,
		cmd.Version,
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
