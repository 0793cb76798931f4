// Package scan fans the analysis pipeline out across a ticker universe on a
// bounded worker pool and assembles per-ticker reports.
package scan

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/data"
	"github.com/marketskies/baroscan/internal/domain/indicator"
	"github.com/marketskies/baroscan/internal/domain/regime"
	"github.com/marketskies/baroscan/internal/metrics"
)

// Snapshot is the latest-bar diagnosis of one ticker under one model.
type Snapshot struct {
	Ticker         string         `json:"ticker"`
	Date           time.Time      `json:"date"`
	Close          float64        `json:"close"`
	State          regime.State   `json:"-"`
	Signal         regime.Signal  `json:"-"`
	StateLabel     string         `json:"state"`
	SignalLabel    string         `json:"signal"`
	Recommendation Recommendation `json:"recommendation"`
}

// Recommendation is the per-model action score: +1 enter, -1 exit, 0 hold.
type Recommendation int

const (
	RecommendExit  Recommendation = -1
	RecommendHold  Recommendation = 0
	RecommendEnter Recommendation = 1
)

// Verbal renders a single-model recommendation.
func (r Recommendation) Verbal() string {
	switch {
	case r > 0:
		return "🟢 enter"
	case r < 0:
		return "🔴 exit or stay out"
	default:
		return "🟡 hold / wait"
	}
}

// CombinedVerbal renders the summed dual-model score (-2..+2).
func CombinedVerbal(score int) string {
	switch {
	case score >= 2:
		return "💎 strong buy"
	case score == 1:
		return "🟢 buy"
	case score == 0:
		return "🟡 hold / wait"
	case score == -1:
		return "🟠 reduce"
	default:
		return "🔴 strong sell"
	}
}

// Recommend folds a state/signal pair into an action score.
func Recommend(state regime.State, signal regime.Signal) Recommendation {
	if signal == regime.SignalTrigger {
		return RecommendEnter
	}
	if state.Bearish() {
		return RecommendExit
	}
	return RecommendHold
}

// TickerReport carries everything the renderer needs for one ticker. Err is
// set when the ticker could not be analyzed; the scan as a whole proceeds.
type TickerReport struct {
	Ticker    string     `json:"ticker"`
	Held      bool       `json:"held"`
	Snapshots []Snapshot `json:"snapshots,omitempty"` // one per model
	Combined  int        `json:"combined_score"`
	Err       string     `json:"error,omitempty"`
}

// Report is the full scan outcome, sorted by ticker for determinism.
type Report struct {
	Started  time.Time      `json:"started"`
	Elapsed  time.Duration  `json:"elapsed"`
	Models   []string       `json:"models"`
	Tickers  []TickerReport `json:"tickers"`
	Failures int            `json:"failures"`
}

// Options configures one scan run.
type Options struct {
	Tickers  []string
	Held     map[string]bool
	Models   []config.Model // one for single-model scans, two for dual
	Names    []string       // model names, parallel to Models
	Lookback string
	Workers  int // 0 means GOMAXPROCS

	// OnResult, when set, observes each ticker as it completes (progress
	// reporting). Called from the collector goroutine only.
	OnResult func(TickerReport)
}

// Scanner runs the pipeline across a universe.
type Scanner struct {
	provider data.Provider
	metrics  *metrics.Registry
}

// New builds a scanner on top of a bar provider.
func New(provider data.Provider, m *metrics.Registry) *Scanner {
	if m == nil {
		m = metrics.Nop()
	}
	return &Scanner{provider: provider, metrics: m}
}

// Analyze diagnoses the latest bar of one ticker under one model: the
// barometer state, the recovery signal against the previous classified bar,
// and the resulting recommendation.
func (s *Scanner) Analyze(ctx context.Context, ticker, lookback string, cfg config.Model) (Snapshot, error) {
	series, err := s.provider.History(ctx, ticker, lookback)
	if err != nil {
		return Snapshot{}, err
	}
	if len(series) < cfg.MinBars() {
		return Snapshot{}, fmt.Errorf("%s: %d bars, need %d for this model", ticker, len(series), cfg.MinBars())
	}

	rows, err := indicator.Compute(series, cfg)
	if err != nil {
		return Snapshot{}, err
	}

	// The diagnosis reads the last two bars whose long window is satisfied.
	var valid []int
	for i := range rows {
		if rows[i].MALong.Valid && rows[i].ADX.Valid {
			valid = append(valid, i)
		}
	}
	if len(valid) < 2 {
		return Snapshot{}, fmt.Errorf("%s: fewer than 2 classified bars after warmup", ticker)
	}

	last, prev := valid[len(valid)-1], valid[len(valid)-2]
	state := regime.Classify(series[last].Close, rows[last], cfg)
	signal := regime.DetectRecovery(rows[last], rows[prev], cfg)

	return Snapshot{
		Ticker:         ticker,
		Date:           series[last].Date,
		Close:          series[last].Close,
		State:          state,
		Signal:         signal,
		StateLabel:     state.Label(),
		SignalLabel:    signal.Label(),
		Recommendation: Recommend(state, signal),
	}, nil
}

// Run scans every ticker in opts under every model, fanning out on a worker
// pool sized by opts.Workers. Each ticker's history is fetched once and
// shared across models. Per-ticker failures are recorded and never abort
// the rest of the batch.
func (s *Scanner) Run(ctx context.Context, opts Options) (Report, error) {
	if len(opts.Models) == 0 {
		return Report{}, fmt.Errorf("scan needs at least one model")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(opts.Tickers) {
		workers = len(opts.Tickers)
	}

	start := time.Now()
	report := Report{Started: start, Models: opts.Names}

	tasks := make(chan string)
	results := make(chan TickerReport)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tasks {
				results <- s.scanOne(ctx, ticker, opts)
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

	for tr := range results {
		if opts.OnResult != nil {
			opts.OnResult(tr)
		}
		if tr.Err != "" {
			report.Failures++
			s.metrics.TickerResults.WithLabelValues("error").Inc()
		} else {
			s.metrics.TickerResults.WithLabelValues("ok").Inc()
		}
		report.Tickers = append(report.Tickers, tr)
	}

	// Completion order is scheduling noise; reports are stable by ticker.
	sort.Slice(report.Tickers, func(i, j int) bool {
		return report.Tickers[i].Ticker < report.Tickers[j].Ticker
	})

	report.Elapsed = time.Since(start)
	s.metrics.ScansTotal.Inc()
	s.metrics.ScanDuration.Observe(report.Elapsed.Seconds())
	log.Info().Int("tickers", len(report.Tickers)).Int("failures", report.Failures).
		Dur("elapsed", report.Elapsed).Msg("scan complete")
	return report, nil
}

func (s *Scanner) scanOne(ctx context.Context, ticker string, opts Options) TickerReport {
	tr := TickerReport{Ticker: ticker, Held: opts.Held[ticker]}

	// One fetch per ticker; every model reuses the series via the provider's
	// cache layer, so per-model Analyze calls stay cheap.
	for _, cfg := range opts.Models {
		snap, err := s.Analyze(ctx, ticker, opts.Lookback, cfg)
		if err != nil {
			tr.Err = err.Error()
			tr.Snapshots = nil
			log.Warn().Str("ticker", ticker).Err(err).Msg("ticker skipped")
			return tr
		}
		tr.Snapshots = append(tr.Snapshots, snap)
		tr.Combined += int(snap.Recommendation)
	}
	return tr
}
