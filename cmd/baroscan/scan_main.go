package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/holdlist"
	"github.com/marketskies/baroscan/internal/logx"
	"github.com/marketskies/baroscan/internal/metrics"
	"github.com/marketskies/baroscan/internal/scan"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the universe for entry and exit opportunities",
		Long: `Scans the ticker universe (plus everything on the hold list) under one
model, or under two models combined into a -2..+2 conviction score with
--dual.`,
		RunE: runScan,
	}
	cmd.Flags().String("model", "conservative", "Model preset for single-model scans")
	cmd.Flags().Bool("dual", false, "Combine the conservative and highwinrate presets")
	cmd.Flags().String("universe", "", "YAML file with a custom ticker list")
	cmd.Flags().String("hold-list", holdlist.DefaultPath, "Hold list file")
	cmd.Flags().String("lookback", "2y", "History range to fetch")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().String("csv", "", "Write the scan report to this CSV file")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	dual, _ := cmd.Flags().GetBool("dual")
	modelName, _ := cmd.Flags().GetString("model")
	universeFile, _ := cmd.Flags().GetString("universe")
	holdPath, _ := cmd.Flags().GetString("hold-list")
	lookback, _ := cmd.Flags().GetString("lookback")
	workers, _ := cmd.Flags().GetInt("workers")

	var models []config.Model
	var names []string
	if dual {
		names = []string{"conservative", "highwinrate"}
	} else {
		names = []string{modelName}
	}
	for _, name := range names {
		m, err := resolveModel(cmd, name)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	tickers := scan.DefaultUniverse()
	if universeFile != "" {
		loaded, err := scan.LoadUniverse(universeFile)
		if err != nil {
			return err
		}
		tickers = loaded
	}

	held, err := holdlist.NewStore(holdPath).Load()
	if err != nil {
		return err
	}
	tickers = scan.MergeUniverse(tickers, held)

	log.Info().Int("tickers", len(tickers)).Strs("models", names).Msg("scan starting")

	reg := metrics.NewRegistry()
	scanner := scan.New(buildProvider(cmd, reg), reg)
	progress := logx.NewProgress("scan", len(tickers))

	report, err := scanner.Run(cmd.Context(), scan.Options{
		Tickers:  tickers,
		Held:     held,
		Models:   models,
		Names:    names,
		Lookback: lookback,
		Workers:  workers,
		OnResult: func(tr scan.TickerReport) { progress.Step(tr.Ticker) },
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	report.Render(os.Stdout)

	if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
		if err := report.WriteCSV(csvPath); err != nil {
			return err
		}
		log.Info().Str("path", csvPath).Msg("scan report written")
	}
	return nil
}
