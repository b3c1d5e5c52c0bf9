package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envPath    string
)

var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Flash-loan arbitrage keeper for stETH/ETH spreads and DAI peg deviations",
	Long: `keeper polls price venues, simulates each opportunity against the
deployed arbitrage contract and submits executeArbitrage when the
simulation reports a profit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "internal/config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "path to .env file")
	rootCmd.AddCommand(runCmd, checkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
