// Package backtest replays the strategy over full ticker histories and
// summarizes per-ticker and averaged performance.
package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/data"
	"github.com/marketskies/baroscan/internal/domain/indicator"
	"github.com/marketskies/baroscan/internal/domain/sim"
)

// TickerOutcome is one ticker's backtest: metrics plus the trade log. Err
// is set when the ticker could not be tested; the batch proceeds without it.
type TickerOutcome struct {
	Ticker  string      `json:"ticker"`
	Metrics sim.Metrics `json:"metrics"`
	Trades  []sim.Trade `json:"trades,omitempty"`
	Err     string      `json:"error,omitempty"`
}

// Beat reports whether the timed strategy outperformed buy-and-hold.
func (o TickerOutcome) Beat() bool {
	return o.Err == "" && o.Metrics.TotalReturn > o.Metrics.BuyHoldReturn
}

// RunReport is a full batch backtest with averaged summary rows.
type RunReport struct {
	ID       string          `json:"id"`
	Model    string          `json:"model"`
	Profile  sim.Profile     `json:"profile"`
	Lookback string          `json:"lookback"`
	Started  time.Time       `json:"started"`
	Elapsed  time.Duration   `json:"elapsed"`
	Outcomes []TickerOutcome `json:"outcomes"`

	AvgAnnualized float64 `json:"avg_annualized_return"`
	AvgSharpe     float64 `json:"avg_sharpe"`
	AvgDrawdown   float64 `json:"avg_max_drawdown"`
	AvgWinRate    float64 `json:"avg_win_rate"`
	Beats         int     `json:"beats_buy_hold"`
	Tested        int     `json:"tested"`
}

// Options configures a batch backtest run.
type Options struct {
	Tickers  []string
	Model    config.Model
	Name     string // model preset name, for the report header
	Profile  sim.Profile
	Lookback string // provider range, e.g. "max" or "10y"
	RiskFree float64
	Workers  int

	// OnResult, when set, observes each ticker as it completes. Called from
	// the collector goroutine only.
	OnResult func(TickerOutcome)
}

// Runner executes backtests against a bar provider.
type Runner struct {
	provider data.Provider
}

// NewRunner builds a Runner.
func NewRunner(provider data.Provider) *Runner {
	return &Runner{provider: provider}
}

// Run backtests every ticker on a bounded worker pool. A ticker with too
// little history for the model's windows is reported and skipped, never
// fatal to the batch.
func (r *Runner) Run(ctx context.Context, opts Options) (RunReport, error) {
	if len(opts.Tickers) == 0 {
		return RunReport{}, fmt.Errorf("no tickers to backtest")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(opts.Tickers) {
		workers = len(opts.Tickers)
	}

	report := RunReport{
		ID:       uuid.NewString(),
		Model:    opts.Name,
		Profile:  opts.Profile,
		Lookback: opts.Lookback,
		Started:  time.Now(),
	}

	tasks := make(chan string)
	results := make(chan TickerOutcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tasks {
				results <- r.runOne(ctx, ticker, opts)
			}
		}()
	}
	go func() {
		for _, ticker := range opts.Tickers {
			tasks <- ticker
		}
		close(tasks)
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		if opts.OnResult != nil {
			opts.OnResult(outcome)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Ticker < report.Outcomes[j].Ticker
	})

	report.summarize()
	report.Elapsed = time.Since(report.Started)
	log.Info().Str("run_id", report.ID).Int("tested", report.Tested).
		Int("beats_buy_hold", report.Beats).Dur("elapsed", report.Elapsed).
		Msg("backtest batch complete")
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, ticker string, opts Options) TickerOutcome {
	outcome := TickerOutcome{Ticker: ticker}

	series, err := r.provider.History(ctx, ticker, opts.Lookback)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}
	if len(series) < opts.Model.MinBars() {
		outcome.Err = fmt.Sprintf("%d bars, need %d for this model", len(series), opts.Model.MinBars())
		return outcome
	}

	rows, err := indicator.Compute(series, opts.Model)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}
	res, err := sim.Run(series, rows, opts.Model, opts.Profile)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}

	outcome.Metrics = sim.Reduce(res, opts.RiskFree)
	outcome.Trades = res.Trades
	return outcome
}

func (report *RunReport) summarize() {
	var ann, sharpes, dds, winRates []float64
	for _, o := range report.Outcomes {
		if o.Err != "" {
			continue
		}
		report.Tested++
		if o.Beat() {
			report.Beats++
		}
		ann = append(ann, o.Metrics.AnnualizedReturn)
		sharpes = append(sharpes, o.Metrics.Sharpe)
		dds = append(dds, o.Metrics.MaxDrawdown)
		winRates = append(winRates, o.Metrics.WinRate)
	}
	if report.Tested == 0 {
		return
	}
	report.AvgAnnualized = stat.Mean(ann, nil)
	report.AvgSharpe = stat.Mean(sharpes, nil)
	report.AvgDrawdown = stat.Mean(dds, nil)
	report.AvgWinRate = stat.Mean(winRates, nil)
}
