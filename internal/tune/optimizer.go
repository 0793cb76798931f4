// Package tune searches the model parameter space by randomized trials,
// scoring each candidate with a full backtest across a fixed ticker
// universe.
package tune

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/domain/indicator"
	"github.com/marketskies/baroscan/internal/domain/sim"
)

// Objective names the quantity a search maximizes.
type Objective string

const (
	MaxReturn   Objective = "max_return"
	HighWinRate Objective = "high_winrate"
	MaxSharpe   Objective = "max_sharpe"
)

// ParseObjective validates an objective name from the CLI.
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case MaxReturn, HighWinRate, MaxSharpe:
		return Objective(s), nil
	default:
		return "", fmt.Errorf("unknown objective %q (max_return|high_winrate|max_sharpe)", s)
	}
}

// Options configures a search run. All knobs are explicit; there are no
// package-level defaults to mutate.
type Options struct {
	Trials    int
	Workers   int // 0 means GOMAXPROCS
	Seed      int64
	Objective Objective
	Profile   sim.Profile
	RiskFree  float64
}

// Space is the discrete candidate list per model parameter. Trials sample
// one value per parameter uniformly at random.
type Space struct {
	MAShort          []int
	MALong           []int
	RSIWindow        []int
	RSIOversold      []float64
	RSIBullThreshold []float64
	RSIBearThreshold []float64
	MACDFast         []int
	MACDSlow         []int
	MACDSignal       []int
	DrawdownWindow   []int
	DrawdownNoRain   []float64
	ADXPeriod        []int
	ADXThreshold     []float64
	BBWindow         []int
	BBStdDev         []float64
}

// DefaultSpace is the fine-tuning grid used for second-pass searches around
// the shipped presets.
func DefaultSpace() Space {
	return Space{
		MAShort:          []int{30, 40, 50, 60, 70, 80},
		MALong:           []int{120, 140, 160, 180, 200},
		RSIWindow:        []int{14, 20, 25},
		RSIOversold:      []float64{30, 35},
		RSIBullThreshold: []float64{50, 55},
		RSIBearThreshold: []float64{40, 45},
		MACDFast:         []int{12, 15},
		MACDSlow:         []int{26, 30},
		MACDSignal:       []int{9, 12, 18},
		DrawdownWindow:   []int{200, 250, 300},
		DrawdownNoRain:   []float64{-0.10, -0.12},
		ADXPeriod:        []int{14, 20},
		ADXThreshold:     []float64{18, 20, 22},
		BBWindow:         []int{20, 25},
		BBStdDev:         []float64{2, 2.5},
	}
}

func pickInt(r *rand.Rand, xs []int) int           { return xs[r.Intn(len(xs))] }
func pickFloat(r *rand.Rand, xs []float64) float64 { return xs[r.Intn(len(xs))] }

func (s Space) sample(r *rand.Rand) config.Model {
	return config.Model{
		MAShort:          pickInt(r, s.MAShort),
		MALong:           pickInt(r, s.MALong),
		RSIWindow:        pickInt(r, s.RSIWindow),
		RSIOversold:      pickFloat(r, s.RSIOversold),
		RSIBullThreshold: pickFloat(r, s.RSIBullThreshold),
		RSIBearThreshold: pickFloat(r, s.RSIBearThreshold),
		MACDFast:         pickInt(r, s.MACDFast),
		MACDSlow:         pickInt(r, s.MACDSlow),
		MACDSignal:       pickInt(r, s.MACDSignal),
		DrawdownWindow:   pickInt(r, s.DrawdownWindow),
		DrawdownNoRain:   pickFloat(r, s.DrawdownNoRain),
		ADXPeriod:        pickInt(r, s.ADXPeriod),
		ADXThreshold:     pickFloat(r, s.ADXThreshold),
		BBWindow:         pickInt(r, s.BBWindow),
		BBStdDev:         pickFloat(r, s.BBStdDev),
	}
}

// Aggregate folds per-ticker backtests into universe-level scores: the
// geometric mean of (1+annualized return) across tickers minus 1, and the
// arithmetic means of win rate and Sharpe.
type Aggregate struct {
	GeoReturn   float64 `json:"geo_annualized_return"`
	MeanWinRate float64 `json:"mean_win_rate"`
	MeanSharpe  float64 `json:"mean_sharpe"`
	Tickers     int     `json:"tickers"`
}

// TrialResult records one scored trial.
type TrialResult struct {
	Index     int          `json:"index"`
	Model     config.Model `json:"model"`
	Aggregate Aggregate    `json:"aggregate"`
	Score     float64      `json:"score"`
}

// SearchResult is the outcome of a full search run.
type SearchResult struct {
	Best     *TrialResult  `json:"best"`
	Scored   int           `json:"scored"`
	Rejected int           `json:"rejected"` // ma_short >= ma_long samples
	Failed   int           `json:"failed"`   // trials with no usable backtest
	Elapsed  time.Duration `json:"elapsed"`
}

// Evaluate scores one model across the pre-fetched universe. Tickers whose
// backtest fails (too little data for this model's windows) are skipped;
// the aggregate requires at least one survivor.
func Evaluate(model config.Model, universe map[string]domain.Series, profile sim.Profile, riskFree float64) (Aggregate, error) {
	var growth, winRates, sharpes []float64
	for _, series := range universe {
		rows, err := indicator.Compute(series, model)
		if err != nil {
			return Aggregate{}, err
		}
		res, err := sim.Run(series, rows, model, profile)
		if err != nil {
			continue
		}
		m := sim.Reduce(res, riskFree)
		if m.AnnualizedReturn > -1 {
			growth = append(growth, 1+m.AnnualizedReturn)
		}
		winRates = append(winRates, m.WinRate)
		sharpes = append(sharpes, m.Sharpe)
	}
	if len(growth) == 0 {
		return Aggregate{}, fmt.Errorf("no ticker produced a usable backtest")
	}
	return Aggregate{
		GeoReturn:   stat.GeometricMean(growth, nil) - 1,
		MeanWinRate: stat.Mean(winRates, nil),
		MeanSharpe:  stat.Mean(sharpes, nil),
		Tickers:     len(growth),
	}, nil
}

func (o Options) score(agg Aggregate) float64 {
	switch o.Objective {
	case HighWinRate:
		// Win rate dominates; a sliver of return breaks ties between
		// configs that win equally often.
		return agg.MeanWinRate + 0.1*agg.GeoReturn
	case MaxSharpe:
		return agg.MeanSharpe
	default:
		return agg.GeoReturn
	}
}

// Search runs opts.Trials independent random trials over the space and
// returns the best-scoring model. Trials fan out over a bounded worker
// pool; each trial derives its own seed from opts.Seed and its index, so a
// fixed seed reproduces the same outcome regardless of scheduling.
func Search(space Space, universe map[string]domain.Series, opts Options) (SearchResult, error) {
	if opts.Trials <= 0 {
		return SearchResult{}, fmt.Errorf("trials must be positive, got %d", opts.Trials)
	}
	if len(universe) == 0 {
		return SearchResult{}, fmt.Errorf("empty evaluation universe")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > opts.Trials {
		workers = opts.Trials
	}

	start := time.Now()
	tasks := make(chan int)
	results := make(chan TrialResult, workers)

	var wg sync.WaitGroup
	var rejected, failed int64
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range tasks {
				rng := rand.New(rand.NewSource(opts.Seed + int64(trial)))
				model := space.sample(rng)
				if model.MAShort >= model.MALong {
					mu.Lock()
					rejected++
					mu.Unlock()
					continue
				}
				agg, err := Evaluate(model, universe, opts.Profile, opts.RiskFree)
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				results <- TrialResult{
					Index:     trial,
					Model:     model,
					Aggregate: agg,
					Score:     opts.score(agg),
				}
			}
		}()
	}

	go func() {
		for trial := 0; trial < opts.Trials; trial++ {
			tasks <- trial
		}
		close(tasks)
		wg.Wait()
		close(results)
	}()

	var best *TrialResult
	scored := 0
	for tr := range results {
		scored++
		tr := tr
		// Lowest trial index wins ties so a fixed seed is fully
		// deterministic under any completion order.
		if best == nil || tr.Score > best.Score || (tr.Score == best.Score && tr.Index < best.Index) {
			best = &tr
		}
		if scored%10 == 0 {
			log.Debug().Int("scored", scored).Int("trials", opts.Trials).Msg("search progress")
		}
	}

	return SearchResult{
		Best:     best,
		Scored:   scored,
		Rejected: int(rejected),
		Failed:   int(failed),
		Elapsed:  time.Since(start),
	}, nil
}
