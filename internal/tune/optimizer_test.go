package tune

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/domain/sim"
)

func TestParseObjective(t *testing.T) {
	for _, name := range []string{"max_return", "high_winrate", "max_sharpe"} {
		obj, err := ParseObjective(name)
		require.NoError(t, err)
		assert.Equal(t, Objective(name), obj)
	}
	_, err := ParseObjective("best_vibes")
	assert.Error(t, err)
}

// syntheticSeries is a noisy cyclical uptrend long enough for every model in
// the small test spaces to warm up and trade.
func syntheticSeries(n int) domain.Series {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(domain.Series, n)
	for i := 0; i < n; i++ {
		price := 100 + 0.1*float64(i) + 15*math.Sin(float64(i)/17)
		s[i] = domain.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  price,
			High:  price * 1.01,
			Low:   price * 0.99,
			Close: price,
		}
	}
	return s
}

// singleSpace pins every parameter to one candidate so all trials sample the
// same model.
func singleSpace() Space {
	return Space{
		MAShort:          []int{5},
		MALong:           []int{20},
		RSIWindow:        []int{7},
		RSIOversold:      []float64{30},
		RSIBullThreshold: []float64{50},
		RSIBearThreshold: []float64{40},
		MACDFast:         []int{5},
		MACDSlow:         []int{10},
		MACDSignal:       []int{4},
		DrawdownWindow:   []int{30},
		DrawdownNoRain:   []float64{-0.05},
		ADXPeriod:        []int{7},
		ADXThreshold:     []float64{15},
		BBWindow:         []int{10},
		BBStdDev:         []float64{2},
	}
}

func TestEvaluate(t *testing.T) {
	universe := map[string]domain.Series{"SYN": syntheticSeries(400)}
	model := singleSpace().sample(rand.New(rand.NewSource(1)))

	t.Run("produces a finite aggregate", func(t *testing.T) {
		agg, err := Evaluate(model, universe, sim.Conservative, 0.02)
		require.NoError(t, err)
		assert.Equal(t, 1, agg.Tickers)
		assert.True(t, agg.GeoReturn > -1)
		assert.GreaterOrEqual(t, agg.MeanWinRate, 0.0)
		assert.LessOrEqual(t, agg.MeanWinRate, 1.0)
		assert.False(t, math.IsNaN(agg.MeanSharpe))
	})

	t.Run("fails when no ticker can run", func(t *testing.T) {
		short := map[string]domain.Series{"TINY": syntheticSeries(5)}
		_, err := Evaluate(model, short, sim.Conservative, 0.02)
		assert.Error(t, err)
	})
}

func TestScoreObjectives(t *testing.T) {
	agg := Aggregate{GeoReturn: 0.20, MeanWinRate: 0.60, MeanSharpe: 1.5}

	assert.Equal(t, 0.20, Options{Objective: MaxReturn}.score(agg))
	assert.Equal(t, 1.5, Options{Objective: MaxSharpe}.score(agg))
	assert.InDelta(t, 0.60+0.1*0.20, Options{Objective: HighWinRate}.score(agg), 1e-12)
}

func TestSearchDeterministic(t *testing.T) {
	universe := map[string]domain.Series{"SYN": syntheticSeries(400)}
	opts := Options{
		Trials:    8,
		Workers:   4,
		Seed:      42,
		Objective: MaxReturn,
		Profile:   sim.Conservative,
		RiskFree:  0.02,
	}

	first, err := Search(singleSpace(), universe, opts)
	require.NoError(t, err)
	second, err := Search(singleSpace(), universe, opts)
	require.NoError(t, err)

	require.NotNil(t, first.Best)
	require.NotNil(t, second.Best)

	// Identical candidates tie on score, so the lowest trial index must win
	// under any completion order.
	assert.Equal(t, 0, first.Best.Index)
	assert.Equal(t, 0, second.Best.Index)
	assert.Equal(t, first.Best.Model, second.Best.Model)
	assert.Equal(t, 8, first.Scored)
	assert.Equal(t, 0, first.Rejected)
	assert.Equal(t, 0, first.Failed)
}

func TestSearchRejectsInvertedWindows(t *testing.T) {
	space := singleSpace()
	space.MAShort = []int{50}
	space.MALong = []int{20}

	universe := map[string]domain.Series{"SYN": syntheticSeries(400)}
	result, err := Search(space, universe, Options{
		Trials:    5,
		Seed:      1,
		Objective: MaxReturn,
		Profile:   sim.Conservative,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Best)
	assert.Equal(t, 5, result.Rejected)
	assert.Equal(t, 0, result.Scored)
}

func TestSearchArgumentChecks(t *testing.T) {
	universe := map[string]domain.Series{"SYN": syntheticSeries(50)}

	_, err := Search(singleSpace(), universe, Options{Trials: 0})
	assert.Error(t, err)

	_, err = Search(singleSpace(), nil, Options{Trials: 3})
	assert.Error(t, err)
}
