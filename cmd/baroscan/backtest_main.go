package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketskies/baroscan/internal/backtest"
	"github.com/marketskies/baroscan/internal/domain/sim"
	"github.com/marketskies/baroscan/internal/logx"
	"github.com/marketskies/baroscan/internal/metrics"
	"github.com/marketskies/baroscan/internal/store"
)

// defaultBacktestTickers is the standing comparison basket.
var defaultBacktestTickers = []string{
	"0050.TW", "006208.TW", "2330.TW", "VOO", "QQQ", "MSFT", "AAPL",
}

func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay the strategy over full histories and score it against buy-and-hold",
		RunE:  runBacktest,
	}
	cmd.Flags().String("model", "conservative", "Model preset to test")
	cmd.Flags().String("profile", "conservative", "Strategy profile (conservative|aggressive)")
	cmd.Flags().StringSlice("tickers", defaultBacktestTickers, "Tickers to backtest")
	cmd.Flags().Int("years", 0, "Limit history to N years (0 = full history)")
	cmd.Flags().Float64("risk-free", 0.02, "Annual risk-free rate for Sharpe")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().String("csv", "", "Write the trade log to this CSV file")
	cmd.Flags().String("store-dsn", "", "Optional Postgres DSN to persist the run")
	return cmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	modelName, _ := cmd.Flags().GetString("model")
	profileName, _ := cmd.Flags().GetString("profile")
	tickers, _ := cmd.Flags().GetStringSlice("tickers")
	years, _ := cmd.Flags().GetInt("years")
	riskFree, _ := cmd.Flags().GetFloat64("risk-free")
	workers, _ := cmd.Flags().GetInt("workers")
	csvPath, _ := cmd.Flags().GetString("csv")
	dsn, _ := cmd.Flags().GetString("store-dsn")

	model, err := resolveModel(cmd, modelName)
	if err != nil {
		return err
	}
	profile, err := sim.ParseProfile(profileName)
	if err != nil {
		return err
	}

	lookback := "max"
	if years > 0 {
		lookback = fmt.Sprintf("%dy", years)
	}
	for i := range tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(tickers[i]))
	}

	reg := metrics.NewRegistry()
	runner := backtest.NewRunner(buildProvider(cmd, reg))
	progress := logx.NewProgress("backtest", len(tickers))

	report, err := runner.Run(cmd.Context(), backtest.Options{
		Tickers:  tickers,
		Model:    model,
		Name:     modelName,
		Profile:  profile,
		Lookback: lookback,
		RiskFree: riskFree,
		Workers:  workers,
		OnResult: func(o backtest.TickerOutcome) { progress.Step(o.Ticker) },
	})
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	report.Render(os.Stdout)

	if csvPath != "" {
		if err := report.WriteTradesCSV(csvPath); err != nil {
			return err
		}
		log.Info().Str("path", csvPath).Msg("trade log written")
	}

	if dsn != "" {
		st, err := store.Open(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveRun(cmd.Context(), report); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		log.Info().Str("run_id", report.ID).Msg("run persisted")
	}
	return nil
}
