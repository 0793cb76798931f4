// Package sim walks a classified bar sequence through a single-position
// long-only state machine and reduces the outcome into performance metrics.
package sim

import (
	"fmt"
	"time"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/domain/indicator"
	"github.com/marketskies/baroscan/internal/domain/regime"
)

// Profile selects the exit discipline of the strategy.
type Profile string

const (
	// Conservative exits only on the rain/typhoon family.
	Conservative Profile = "conservative"
	// Aggressive also exits on overcast, and refuses entries that fire
	// while the barometer is already bearish.
	Aggressive Profile = "aggressive"
)

// ParseProfile validates a profile name from the CLI.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case Conservative, Aggressive:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("unknown strategy profile %q (conservative|aggressive)", s)
	}
}

// Trade is one closed round trip. Profit is fractional, (exit-entry)/entry.
type Trade struct {
	EntryDate  time.Time `json:"entry_date" csv:"entry_date"`
	EntryPrice float64   `json:"entry_price" csv:"entry_price"`
	ExitDate   time.Time `json:"exit_date" csv:"exit_date"`
	ExitPrice  float64   `json:"exit_price" csv:"exit_price"`
	Profit     float64   `json:"profit" csv:"profit"`
}

// Point is one simulated bar: its price plus the classifier and detector
// outputs for that bar. Points handed to Walk must already be date-ordered
// and free of insufficient-data rows.
type Point struct {
	Date   time.Time
	Close  float64
	State  regime.State
	Signal regime.Signal
}

// Result is the raw simulation outcome before metric reduction.
type Result struct {
	Trades  []Trade `json:"trades"`
	Capital float64 `json:"capital"` // cumulative multiplier, starts at 1.0

	// DailyReturns holds one mark-to-market return per simulated bar after
	// the first, nonzero only while a position was open.
	DailyReturns []float64 `json:"-"`

	// Bars is the number of bars that actually entered simulation, i.e.
	// those with a defined classification.
	Bars       int     `json:"bars"`
	FirstClose float64 `json:"first_close"`
	LastClose  float64 `json:"last_close"`
}

// close records one finished round trip and compounds the capital curve.
func (r *Result) close(entryDate time.Time, entryPrice float64, exitDate time.Time, exitPrice float64) {
	profit := exitPrice/entryPrice - 1
	r.Trades = append(r.Trades, Trade{
		EntryDate:  entryDate,
		EntryPrice: entryPrice,
		ExitDate:   exitDate,
		ExitPrice:  exitPrice,
		Profit:     profit,
	})
	r.Capital *= 1 + profit
}

// Walk runs the two-state machine over an ordered point sequence. The
// machine starts flat, enters on a cleared-skies trigger, exits when the
// state falls in the profile's exit set, and force-closes at the final bar
// if still long. A trigger while long and an exit while flat are ignored;
// at most one position is ever open.
func Walk(points []Point, profile Profile) (Result, error) {
	if len(points) < 2 {
		return Result{}, fmt.Errorf("need at least 2 classified bars to simulate, got %d", len(points))
	}

	res := Result{
		Capital:      1.0,
		DailyReturns: make([]float64, 0, len(points)-1),
		Bars:         len(points),
		FirstClose:   points[0].Close,
		LastClose:    points[len(points)-1].Close,
	}

	long := false
	var entryPrice float64
	var entryDate time.Time

	for k := 1; k < len(points); k++ {
		p := points[k]

		if long {
			res.DailyReturns = append(res.DailyReturns, p.Close/points[k-1].Close-1)
		} else {
			res.DailyReturns = append(res.DailyReturns, 0)
		}

		enter := p.Signal == regime.SignalTrigger
		exit := p.State.Bearish()
		if profile == Aggressive {
			enter = enter && !p.State.Bearish()
			exit = exit || p.State == regime.Overcast
		}

		if enter && !long {
			long = true
			entryPrice = p.Close
			entryDate = p.Date
		} else if exit && long {
			long = false
			res.close(entryDate, entryPrice, p.Date, p.Close)
		}
	}

	if long {
		last := points[len(points)-1]
		res.close(entryDate, entryPrice, last.Date, last.Close)
	}
	return res, nil
}

// Run composes the full stack for one series: indicator rows in, classified
// points through the state machine. Bars the classifier cannot label
// (indicator warmup) are dropped before the walk; the recovery signal for
// each surviving bar is still computed against its true predecessor in the
// raw series.
func Run(series domain.Series, rows []indicator.Row, cfg config.Model, profile Profile) (Result, error) {
	if len(series) != len(rows) {
		return Result{}, fmt.Errorf("series/rows length mismatch: %d vs %d", len(series), len(rows))
	}

	var points []Point
	for i := range rows {
		state := regime.Classify(series[i].Close, rows[i], cfg)
		if state == regime.InsufficientData {
			continue
		}
		var prev indicator.Row
		if i > 0 {
			prev = rows[i-1]
		}
		points = append(points, Point{
			Date:   series[i].Date,
			Close:  series[i].Close,
			State:  state,
			Signal: regime.DetectRecovery(rows[i], prev, cfg),
		})
	}
	return Walk(points, profile)
}
