package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "baroscan"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Market-weather barometer: regime scans, recovery signals, backtests",
		Version: version,
		Long: `baroscan classifies a security's price history into a market-weather
regime, watches for the cleared-skies recovery entry signal, and scores
model configurations by replaying a single-position long-only strategy
over history.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			if parsed, err := zerolog.ParseLevel(level); err == nil {
				zerolog.SetGlobalLevel(parsed)
			}
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String("cache-dir", "data_cache", "Bar cache directory")
	rootCmd.PersistentFlags().Duration("cache-ttl", 12*time.Hour, "Bar cache freshness window")
	rootCmd.PersistentFlags().String("presets", "", "Optional YAML file with extra model presets")

	rootCmd.AddCommand(newJudgeCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newOptimizeCmd())
	rootCmd.AddCommand(newHoldCmd())
	rootCmd.AddCommand(newMonitorCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
