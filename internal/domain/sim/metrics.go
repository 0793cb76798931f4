package sim

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for returns and Sharpe.
const TradingDaysPerYear = 252

// Metrics are pure reductions of a simulation result. No state, no I/O.
type Metrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	WinRate          float64 `json:"win_rate"`
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	BuyHoldReturn    float64 `json:"buy_hold_return"`
	TradeCount       int     `json:"trade_count"`
}

// Reduce computes all performance metrics for a result. riskFree is the
// annual risk-free rate used for Sharpe.
func Reduce(res Result, riskFree float64) Metrics {
	m := Metrics{
		TotalReturn: res.Capital - 1,
		TradeCount:  len(res.Trades),
	}

	if len(res.Trades) > 0 {
		wins := 0
		for _, t := range res.Trades {
			if t.Profit > 0 {
				wins++
			}
		}
		m.WinRate = float64(wins) / float64(len(res.Trades))
	}

	if res.Bars > 0 && m.TotalReturn > -1 {
		years := float64(res.Bars) / TradingDaysPerYear
		if years > 0 {
			m.AnnualizedReturn = math.Pow(1+m.TotalReturn, 1/years) - 1
		}
	}

	m.Sharpe = sharpe(res.DailyReturns, riskFree)
	m.MaxDrawdown = maxDrawdown(res.DailyReturns)

	if res.FirstClose > 0 {
		m.BuyHoldReturn = res.LastClose/res.FirstClose - 1
	}
	return m
}

// sharpe annualizes mean excess daily return over its population standard
// deviation, returning 0 when the returns never move.
func sharpe(daily []float64, riskFree float64) float64 {
	if len(daily) == 0 {
		return 0
	}
	excess := make([]float64, len(daily))
	perDay := riskFree / TradingDaysPerYear
	for i, r := range daily {
		excess[i] = r - perDay
	}
	sd := popStdDev(excess)
	if sd == 0 {
		return 0
	}
	return math.Sqrt(TradingDaysPerYear) * stat.Mean(excess, nil) / sd
}

func popStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	mean := stat.Mean(x, nil)
	var ss float64
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)))
}

// maxDrawdown is the deepest peak-to-trough decline of the cumulative
// daily-return equity curve. Always <= 0; 0 for an empty or flat curve.
func maxDrawdown(daily []float64) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range daily {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := (equity - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}
