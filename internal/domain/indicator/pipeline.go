// Package indicator derives the full technical indicator set for a bar
// series in a single rolling pass. Every derived field is an explicit
// optional: a field is undefined until its lookback window is satisfied and
// downstream logic must branch on definedness instead of comparing NaNs.
package indicator

import (
	"fmt"
	"math"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/domain"
)

// Value is an optional float64. The zero value is undefined.
type Value struct {
	Float64 float64
	Valid   bool
}

// Defined wraps v as a defined Value.
func Defined(v float64) Value {
	return Value{Float64: v, Valid: true}
}

// GT reports v > x, false when v is undefined.
func (v Value) GT(x float64) bool { return v.Valid && v.Float64 > x }

// LT reports v < x, false when v is undefined.
func (v Value) LT(x float64) bool { return v.Valid && v.Float64 < x }

// Row is the indicator snapshot for one bar. Rows align 1:1 by index with
// the input series.
type Row struct {
	MAShort    Value `json:"ma_short"`
	MALong     Value `json:"ma_long"`
	RSI        Value `json:"rsi"`
	MACD       Value `json:"macd"`
	MACDSignal Value `json:"macd_signal"`
	MACDHist   Value `json:"macd_hist"`
	Drawdown   Value `json:"drawdown"`
	ADX        Value `json:"adx"`
	DIPlus     Value `json:"di_plus"`
	DIMinus    Value `json:"di_minus"`
	BBMiddle   Value `json:"bb_middle,omitempty"`
	BBUpper    Value `json:"bb_upper,omitempty"`
	BBLower    Value `json:"bb_lower,omitempty"`
}

// Compute derives one Row per bar of the series. The output slice has the
// same length and date alignment as the input.
func Compute(series domain.Series, cfg config.Model) ([]Row, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("indicator config: %w", err)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	n := len(series)
	rows := make([]Row, n)
	if n == 0 {
		return rows, nil
	}
	closes := series.Closes()

	computeMovingAverages(rows, closes, cfg)
	computeRSI(rows, closes, cfg.RSIWindow)
	computeMACD(rows, closes, cfg)
	computeDrawdown(rows, closes, cfg.DrawdownWindow)
	computeDirectional(rows, series, cfg.ADXPeriod)
	if cfg.HasBollinger() {
		computeBollinger(rows, closes, cfg.BBWindow, cfg.BBStdDev)
	}
	return rows, nil
}

func computeMovingAverages(rows []Row, closes []float64, cfg config.Model) {
	short := rollingMean(closes, cfg.MAShort)
	long := rollingMean(closes, cfg.MALong)
	for i := range rows {
		rows[i].MAShort = short[i]
		rows[i].MALong = long[i]
	}
}

// rollingMean computes an arithmetic rolling mean; entries are undefined
// until the window is filled.
func rollingMean(values []float64, window int) []Value {
	out := make([]Value, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = Defined(sum / float64(window))
		}
	}
	return out
}

// computeRSI uses simple rolling means of gains and losses, not Wilder
// smoothing. The first bar has no delta and contributes zero to both sides,
// so RSI becomes defined at index window-1. A window with zero loss and
// positive gain saturates to exactly 100; a window with zero movement on
// both sides leaves RSI undefined for that bar.
func computeRSI(rows []Row, closes []float64, window int) {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 0; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i >= window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		if i < window-1 {
			continue
		}
		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		switch {
		case avgLoss > 0:
			rs := avgGain / avgLoss
			rows[i].RSI = Defined(100 - 100/(1+rs))
		case avgGain > 0:
			// Zero loss, positive gain: the ratio diverges and RSI
			// saturates at the top of its range.
			rows[i].RSI = Defined(100)
		default:
			// No movement either way over the window; leave undefined so
			// threshold comparisons stay false downstream.
		}
	}
}

// ema applies a span-parameterized recursive EMA (alpha = 2/(span+1))
// seeded at the first value.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func computeMACD(rows []Row, closes []float64, cfg config.Model) {
	fast := ema(closes, cfg.MACDFast)
	slow := ema(closes, cfg.MACDSlow)
	macd := make([]float64, len(closes))
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}

	signalSpan := cfg.MACDSignal
	if cfg.LegacySignalSpan {
		signalSpan = cfg.MACDFast
	}
	signal := ema(macd, signalSpan)

	for i := range rows {
		rows[i].MACD = Defined(macd[i])
		rows[i].MACDSignal = Defined(signal[i])
		rows[i].MACDHist = Defined(macd[i] - signal[i])
	}
}

// computeDrawdown tracks the trailing rolling maximum close, requiring only
// a single sample, so drawdown is defined from the very first bar and is
// always <= 0.
func computeDrawdown(rows []Row, closes []float64, window int) {
	for i := range closes {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		maxClose := closes[start]
		for j := start + 1; j <= i; j++ {
			if closes[j] > maxClose {
				maxClose = closes[j]
			}
		}
		rows[i].Drawdown = Defined(closes[i]/maxClose - 1)
	}
}

// computeDirectional derives the ADX family. True range needs a previous
// close, so everything here is undefined on the first bar; from the second
// bar on, zero denominators resolve to 0 rather than an undefined value.
func computeDirectional(rows []Row, series domain.Series, period int) {
	n := len(series)
	if n < 2 {
		return
	}
	alpha := 2.0 / (float64(period) + 1.0)

	var trEMA, dmPlusEMA, dmMinusEMA, adx float64
	for i := 1; i < n; i++ {
		cur, prev := series[i], series[i-1]

		tr := cur.High - cur.Low
		if hc := math.Abs(cur.High - prev.Close); hc > tr {
			tr = hc
		}
		if lc := math.Abs(cur.Low - prev.Close); lc > tr {
			tr = lc
		}

		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		var dmPlus, dmMinus float64
		if upMove > downMove && upMove > 0 {
			dmPlus = upMove
		}
		if downMove > upMove && downMove > 0 {
			dmMinus = downMove
		}

		if i == 1 {
			trEMA, dmPlusEMA, dmMinusEMA = tr, dmPlus, dmMinus
		} else {
			trEMA = alpha*tr + (1-alpha)*trEMA
			dmPlusEMA = alpha*dmPlus + (1-alpha)*dmPlusEMA
			dmMinusEMA = alpha*dmMinus + (1-alpha)*dmMinusEMA
		}

		var diPlus, diMinus float64
		if trEMA > 0 {
			diPlus = 100 * dmPlusEMA / trEMA
			diMinus = 100 * dmMinusEMA / trEMA
		}

		var dx float64
		if sum := diPlus + diMinus; sum > 0 {
			dx = 100 * math.Abs(diPlus-diMinus) / sum
		}

		if i == 1 {
			adx = dx
		} else {
			adx = alpha*dx + (1-alpha)*adx
		}

		rows[i].DIPlus = Defined(diPlus)
		rows[i].DIMinus = Defined(diMinus)
		rows[i].ADX = Defined(adx)
	}
}

func computeBollinger(rows []Row, closes []float64, window int, width float64) {
	middle := rollingMean(closes, window)
	for i := range closes {
		if !middle[i].Valid {
			continue
		}
		mean := middle[i].Float64
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mean
			variance += d * d
		}
		// Sample standard deviation over the window.
		std := math.Sqrt(variance / float64(window-1))
		rows[i].BBMiddle = middle[i]
		rows[i].BBUpper = Defined(mean + width*std)
		rows[i].BBLower = Defined(mean - width*std)
	}
}
