package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"flashpeg-keeper/internal/app"
	"flashpeg-keeper/internal/config"
	"flashpeg-keeper/internal/logging"
	"flashpeg-keeper/internal/units"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const checkTimeout = 60 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every configured strategy until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		log.Info("keeper starting")
		return application.Run(cmd.Context())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate each strategy once without submitting transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()
		results, err := application.CheckOnce(ctx)
		if err != nil {
			return err
		}
		return printResults(cmd, results)
	},
}

func setup() (*app.App, *zap.Logger, error) {
	if err := config.LoadEnv(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envPath, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.Log)
	log.Info("config loaded", zap.String("path", configPath))
	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize app", zap.Error(err))
		return nil, nil, err
	}
	return application, log, nil
}

func printResults(cmd *cobra.Command, results []app.CheckResult) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tBPS\tDIRECTION\tFLASH\tPROFIT\tMIN_OUT\tPROFITABLE\tERROR")
	for _, r := range results {
		op := r.Opportunity
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%t\t%s\n",
			r.Strategy,
			op.SpreadBps,
			op.Direction,
			units.FormatEther(op.FlashAmount),
			units.FormatEther(op.ExpectedProfit),
			units.FormatEther(op.MinOut),
			op.Profitable,
			errText,
		)
	}
	return w.Flush()
}
