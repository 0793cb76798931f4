package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/domain/indicator"
	"github.com/marketskies/baroscan/internal/domain/regime"
)

func pt(day int, close float64, state regime.State, signal regime.Signal) Point {
	return Point{
		Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Close:  close,
		State:  state,
		Signal: signal,
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("conservative")
	require.NoError(t, err)
	assert.Equal(t, Conservative, p)

	p, err = ParseProfile("aggressive")
	require.NoError(t, err)
	assert.Equal(t, Aggressive, p)

	_, err = ParseProfile("yolo")
	assert.Error(t, err)
}

func TestWalkSingleRoundTrip(t *testing.T) {
	points := []Point{
		pt(0, 100, regime.Overcast, regime.SignalNone),
		pt(1, 100, regime.Overcast, regime.SignalTrigger), // enter at 100
		pt(2, 110, regime.Sunny, regime.SignalNone),
		pt(3, 120, regime.Rainy, regime.SignalNone), // exit at 120
		pt(4, 90, regime.Rainy, regime.SignalNone),
	}

	res, err := Walk(points, Conservative)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, points[1].Date, tr.EntryDate)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Equal(t, points[3].Date, tr.ExitDate)
	assert.Equal(t, 120.0, tr.ExitPrice)
	assert.InDelta(t, 0.20, tr.Profit, 1e-12)
	assert.InDelta(t, 1.20, res.Capital, 1e-12)

	// Mark-to-market returns are nonzero only while the position is open.
	require.Len(t, res.DailyReturns, 4)
	assert.Equal(t, 0.0, res.DailyReturns[0])
	assert.InDelta(t, 0.10, res.DailyReturns[1], 1e-12)
	assert.InDelta(t, 120.0/110.0-1, res.DailyReturns[2], 1e-12) // exit bar still marks to market
	assert.Equal(t, 0.0, res.DailyReturns[3])
}

func TestWalkNoTrigger(t *testing.T) {
	points := []Point{
		pt(0, 100, regime.Sunny, regime.SignalNone),
		pt(1, 105, regime.Sunny, regime.SignalNone),
		pt(2, 95, regime.Rainy, regime.SignalNone),
	}

	res, err := Walk(points, Conservative)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 1.0, res.Capital)
	for _, r := range res.DailyReturns {
		assert.Equal(t, 0.0, r)
	}
}

func TestWalkForcedCloseOut(t *testing.T) {
	points := []Point{
		pt(0, 100, regime.Overcast, regime.SignalNone),
		pt(1, 100, regime.Overcast, regime.SignalTrigger),
		pt(2, 110, regime.Sunny, regime.SignalNone),
	}

	res, err := Walk(points, Conservative)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, points[2].Date, tr.ExitDate)
	assert.Equal(t, 110.0, tr.ExitPrice)
	assert.InDelta(t, 0.10, tr.Profit, 1e-12)
}

func TestWalkIgnoresRedundantSignals(t *testing.T) {
	// A second trigger while long opens nothing; a bearish bar while flat
	// closes nothing. At most one position is ever open.
	points := []Point{
		pt(0, 100, regime.Rainy, regime.SignalNone),
		pt(1, 100, regime.Overcast, regime.SignalTrigger),
		pt(2, 105, regime.Overcast, regime.SignalTrigger),
		pt(3, 110, regime.Rainy, regime.SignalNone),
		pt(4, 90, regime.Rainy, regime.SignalNone),
		pt(5, 95, regime.Overcast, regime.SignalTrigger),
		pt(6, 99, regime.Typhoon, regime.SignalNone),
	}

	res, err := Walk(points, Conservative)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, 100.0, res.Trades[0].EntryPrice)
	assert.Equal(t, 110.0, res.Trades[0].ExitPrice)
	assert.Equal(t, 95.0, res.Trades[1].EntryPrice)
	assert.Equal(t, 99.0, res.Trades[1].ExitPrice)

	// Capital compounds across trades.
	want := (110.0 / 100.0) * (99.0 / 95.0)
	assert.InDelta(t, want, res.Capital, 1e-12)
}

func TestWalkAggressiveProfile(t *testing.T) {
	t.Run("exits on overcast", func(t *testing.T) {
		points := []Point{
			pt(0, 100, regime.Sunny, regime.SignalNone),
			pt(1, 100, regime.Sunny, regime.SignalTrigger),
			pt(2, 108, regime.Overcast, regime.SignalNone),
			pt(3, 120, regime.Sunny, regime.SignalNone),
		}

		res, err := Walk(points, Aggressive)
		require.NoError(t, err)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, 108.0, res.Trades[0].ExitPrice)

		// Conservative holds through the overcast bar to the forced close.
		res, err = Walk(points, Conservative)
		require.NoError(t, err)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, 120.0, res.Trades[0].ExitPrice)
	})

	t.Run("refuses entry while bearish", func(t *testing.T) {
		points := []Point{
			pt(0, 100, regime.Rainy, regime.SignalNone),
			pt(1, 95, regime.Rainy, regime.SignalTrigger),
			pt(2, 99, regime.Overcast, regime.SignalNone),
		}

		res, err := Walk(points, Aggressive)
		require.NoError(t, err)
		assert.Empty(t, res.Trades)

		// Conservative takes the same trigger.
		res, err = Walk(points, Conservative)
		require.NoError(t, err)
		require.Len(t, res.Trades, 1)
		assert.Equal(t, 95.0, res.Trades[0].EntryPrice)
	})
}

func TestWalkTooFewPoints(t *testing.T) {
	_, err := Walk(nil, Conservative)
	assert.Error(t, err)

	_, err = Walk([]Point{pt(0, 100, regime.Sunny, regime.SignalNone)}, Conservative)
	assert.Error(t, err)
}

func TestRunDropsWarmupBars(t *testing.T) {
	cfg := config.Model{
		MAShort: 2, MALong: 3,
		RSIWindow: 2, RSIOversold: 30, RSIBullThreshold: 50, RSIBearThreshold: 40,
		MACDFast: 2, MACDSlow: 4, MACDSignal: 3,
		DrawdownWindow: 5, DrawdownNoRain: -0.10,
		ADXPeriod: 2, ADXThreshold: 20,
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 101, 102, 103, 104, 105, 106, 107}
	series := make(domain.Series, len(closes))
	for i, c := range closes {
		series[i] = domain.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}

	rows, err := indicator.Compute(series, cfg)
	require.NoError(t, err)

	res, err := Run(series, rows, cfg, Conservative)
	require.NoError(t, err)

	// The first two bars lack the long moving average and never simulate.
	assert.Equal(t, len(series)-2, res.Bars)
	assert.Equal(t, 102.0, res.FirstClose)
	assert.Equal(t, 107.0, res.LastClose)
}

func TestRunLengthMismatch(t *testing.T) {
	series := domain.Series{{Date: time.Now(), Close: 1}}
	_, err := Run(series, nil, config.Model{}, Conservative)
	assert.Error(t, err)
}
