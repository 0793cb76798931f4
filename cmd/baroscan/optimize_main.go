package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/domain/sim"
	"github.com/marketskies/baroscan/internal/metrics"
	"github.com/marketskies/baroscan/internal/tune"
)

// defaultOptimizeTickers is the evaluation universe the presets were tuned
// against.
var defaultOptimizeTickers = []string{"0050.TW", "006208.TW", "VOO", "QQQ"}

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Random-search the model parameter space",
		Long: `Runs N random trials over the fine-tuning parameter grid, scoring each
candidate by backtesting it across the evaluation universe, and prints
the best configuration as a YAML preset.`,
		RunE: runOptimize,
	}
	cmd.Flags().Int("trials", 100, "Number of random trials")
	cmd.Flags().String("objective", "max_sharpe", "Objective (max_return|high_winrate|max_sharpe)")
	cmd.Flags().StringSlice("tickers", defaultOptimizeTickers, "Evaluation universe")
	cmd.Flags().String("lookback", "5y", "History range per ticker")
	cmd.Flags().String("profile", "conservative", "Strategy profile to score with")
	cmd.Flags().Float64("risk-free", 0.02, "Annual risk-free rate for Sharpe")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = time-based)")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 = CPU count)")
	return cmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	trials, _ := cmd.Flags().GetInt("trials")
	objectiveName, _ := cmd.Flags().GetString("objective")
	tickers, _ := cmd.Flags().GetStringSlice("tickers")
	lookback, _ := cmd.Flags().GetString("lookback")
	profileName, _ := cmd.Flags().GetString("profile")
	riskFree, _ := cmd.Flags().GetFloat64("risk-free")
	seed, _ := cmd.Flags().GetInt64("seed")
	workers, _ := cmd.Flags().GetInt("workers")

	objective, err := tune.ParseObjective(objectiveName)
	if err != nil {
		return err
	}
	profile, err := sim.ParseProfile(profileName)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Pre-fetch the whole universe before the CPU-bound search starts, so
	// throttled network I/O never serializes the trials.
	reg := metrics.NewRegistry()
	provider := buildProvider(cmd, reg)
	universe := make(map[string]domain.Series, len(tickers))
	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		series, err := provider.History(cmd.Context(), ticker, lookback)
		if err != nil {
			return fmt.Errorf("prefetch %s: %w", ticker, err)
		}
		universe[ticker] = series
	}

	log.Info().Int("trials", trials).Str("objective", string(objective)).
		Int64("seed", seed).Int("tickers", len(universe)).Msg("search starting")

	result, err := tune.Search(tune.DefaultSpace(), universe, tune.Options{
		Trials:    trials,
		Workers:   workers,
		Seed:      seed,
		Objective: objective,
		Profile:   profile,
		RiskFree:  riskFree,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("  Search finished (objective: %s)\n", objective)
	fmt.Printf("========================================\n")
	fmt.Printf("scored: %d  rejected: %d  failed: %d  elapsed: %s\n",
		result.Scored, result.Rejected, result.Failed, result.Elapsed.Round(time.Millisecond))

	if result.Best == nil {
		fmt.Println("\nNo valid configuration found in this run.")
		return nil
	}

	agg := result.Best.Aggregate
	fmt.Printf("\ngeo annualized return: %.2f%%\n", agg.GeoReturn*100)
	fmt.Printf("mean sharpe:           %.2f\n", agg.MeanSharpe)
	fmt.Printf("mean win rate:         %.2f%%\n", agg.MeanWinRate*100)

	out, err := yaml.Marshal(map[string]interface{}{"tuned": result.Best.Model})
	if err != nil {
		return err
	}
	fmt.Printf("\nbest preset:\n%s", out)
	return nil
}
