// Package regime maps indicator snapshots to discrete market-weather states
// and detects the momentum-recovery entry signal. Both functions are pure:
// they read one or two rows and the model parameters, nothing else.
package regime

import (
	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/domain/indicator"
)

// State is the barometer label for a single bar.
type State int

const (
	InsufficientData State = iota
	Sunny
	SunnyOverheated
	CloudyBright
	Overcast
	Rainy
	Typhoon
	TyphoonPanic
)

var stateNames = map[State]string{
	InsufficientData: "insufficient_data",
	Sunny:            "sunny",
	SunnyOverheated:  "sunny_overheated",
	CloudyBright:     "cloudy_bright",
	Overcast:         "overcast",
	Rainy:            "rainy",
	Typhoon:          "typhoon",
	TyphoonPanic:     "typhoon_panic",
}

func (s State) String() string { return stateNames[s] }

// Label is the human-facing report form of the state.
func (s State) Label() string {
	switch s {
	case Sunny:
		return "☀️ Sunny"
	case SunnyOverheated:
		return "🔥 Sunny (overheated)"
	case CloudyBright:
		return "🌥️ Cloudy bright"
	case Overcast:
		return "☁️ Overcast"
	case Rainy:
		return "🌧️ Rainy"
	case Typhoon:
		return "⛈️ Typhoon"
	case TyphoonPanic:
		return "🌀 Typhoon (panic)"
	default:
		return "insufficient data"
	}
}

// Bearish reports whether the state belongs to the rain/typhoon family.
func (s State) Bearish() bool {
	return s == Rainy || s == Typhoon || s == TyphoonPanic
}

// Classify applies the ordered barometer rules to one row. The rule order
// and the overcast fallback are load-bearing: boundary rows classify
// differently if the rules are evaluated in any other order.
func Classify(close float64, row indicator.Row, cfg config.Model) State {
	if !row.MALong.Valid || !row.MAShort.Valid {
		return InsufficientData
	}
	maShort := row.MAShort.Float64
	maLong := row.MALong.Float64

	switch {
	case close > maShort && maShort > maLong && row.RSI.GT(cfg.RSIBullThreshold):
		if cfg.HasBollinger() && row.BBUpper.Valid && close > row.BBUpper.Float64 {
			return SunnyOverheated
		}
		return Sunny
	case close > maShort && close > maLong:
		return CloudyBright
	case (maLong > close && close > maShort) || (maShort > close && close > maLong):
		return Overcast
	case maShort > close && maLong > close && row.RSI.LT(cfg.RSIBearThreshold):
		return Rainy
	case maShort > close && maLong > close && row.RSI.LT(cfg.RSIOversold):
		if cfg.HasBollinger() && row.BBLower.Valid && close < row.BBLower.Float64 {
			return TyphoonPanic
		}
		return Typhoon
	default:
		return Overcast
	}
}

// Signal is the tri-state recovery detector output.
type Signal int

const (
	SignalInsufficientData Signal = iota
	SignalNone
	SignalTrigger
)

var signalNames = map[Signal]string{
	SignalInsufficientData: "insufficient_data",
	SignalNone:             "none",
	SignalTrigger:          "cleared_skies",
}

func (s Signal) String() string { return signalNames[s] }

// Label is the human-facing report form of the signal.
func (s Signal) Label() string {
	switch s {
	case SignalTrigger:
		return "🌈 Cleared skies"
	case SignalNone:
		return "No rain break"
	default:
		return "insufficient data"
	}
}

// DetectRecovery fires the cleared-skies entry trigger when the drawdown is
// deep enough, improving against the previous bar, and confirmed by bullish
// MACD momentum and directional trend strength. prev may be the zero Row for
// the first bar of a series; its drawdown then defaults to 0.
func DetectRecovery(cur, prev indicator.Row, cfg config.Model) Signal {
	if !cur.MACDHist.Valid || !cur.Drawdown.Valid || !cur.ADX.Valid ||
		!cur.DIPlus.Valid || !cur.DIMinus.Valid {
		return SignalInsufficientData
	}

	prevDrawdown := 0.0
	if prev.Drawdown.Valid {
		prevDrawdown = prev.Drawdown.Float64
	}

	deep := cur.Drawdown.Float64 <= cfg.DrawdownNoRain
	improving := cur.Drawdown.Float64 > prevDrawdown
	bullish := cur.MACDHist.Float64 > 0
	trending := cur.ADX.Float64 > cfg.ADXThreshold
	directional := cur.DIPlus.Float64 > cur.DIMinus.Float64

	if deep && improving && bullish && trending && directional {
		return SignalTrigger
	}
	return SignalNone
}
