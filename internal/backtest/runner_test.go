package backtest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketskies/baroscan/internal/config"
	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/domain/sim"
)

func backtestModel() config.Model {
	return config.Model{
		MAShort: 3, MALong: 5,
		RSIWindow: 4, RSIOversold: 30, RSIBullThreshold: 50, RSIBearThreshold: 40,
		MACDFast: 3, MACDSlow: 6, MACDSignal: 4,
		DrawdownWindow: 10, DrawdownNoRain: -0.10,
		ADXPeriod: 3, ADXThreshold: 20,
	}
}

type fakeProvider struct {
	histories map[string]domain.Series
}

func (f *fakeProvider) History(ctx context.Context, ticker, lookback string) (domain.Series, error) {
	s, ok := f.histories[ticker]
	if !ok {
		return nil, fmt.Errorf("no data for %s", ticker)
	}
	return s, nil
}

func trendingSeries(n int) domain.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(domain.Series, n)
	for i := range s {
		c := 100 + float64(i)
		s[i] = domain.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return s
}

func TestRunnerFaultIsolation(t *testing.T) {
	runner := NewRunner(&fakeProvider{histories: map[string]domain.Series{
		"GOOD": trendingSeries(60),
		"TINY": trendingSeries(3),
	}})

	var seen []string
	report, err := runner.Run(context.Background(), Options{
		Tickers:  []string{"GOOD", "TINY", "MISSING"},
		Model:    backtestModel(),
		Name:     "test",
		Profile:  sim.Conservative,
		Lookback: "max",
		Workers:  2,
		OnResult: func(o TickerOutcome) { seen = append(seen, o.Ticker) },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.ElementsMatch(t, []string{"GOOD", "TINY", "MISSING"}, seen)

	require.Len(t, report.Outcomes, 3)
	// Sorted by ticker regardless of completion order.
	assert.Equal(t, "GOOD", report.Outcomes[0].Ticker)
	assert.Empty(t, report.Outcomes[0].Err)
	assert.Equal(t, "MISSING", report.Outcomes[1].Ticker)
	assert.NotEmpty(t, report.Outcomes[1].Err)
	assert.Equal(t, "TINY", report.Outcomes[2].Ticker)
	assert.NotEmpty(t, report.Outcomes[2].Err)

	// Averages cover only the testable tickers.
	assert.Equal(t, 1, report.Tested)
	assert.Equal(t, report.Outcomes[0].Metrics.AnnualizedReturn, report.AvgAnnualized)
	assert.Equal(t, report.Outcomes[0].Metrics.Sharpe, report.AvgSharpe)
}

func TestRunnerNoTickers(t *testing.T) {
	runner := NewRunner(&fakeProvider{})
	_, err := runner.Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestOutcomeBeat(t *testing.T) {
	o := TickerOutcome{Metrics: sim.Metrics{TotalReturn: 0.30, BuyHoldReturn: 0.20}}
	assert.True(t, o.Beat())

	o.Metrics.BuyHoldReturn = 0.40
	assert.False(t, o.Beat())

	o.Err = "skipped"
	o.Metrics.BuyHoldReturn = 0.10
	assert.False(t, o.Beat())
}

func TestRenderIncludesSkips(t *testing.T) {
	report := RunReport{
		ID:      "run-1",
		Model:   "test",
		Profile: sim.Conservative,
		Outcomes: []TickerOutcome{
			{Ticker: "GOOD", Metrics: sim.Metrics{TotalReturn: 0.25, BuyHoldReturn: 0.10, TradeCount: 2}},
			{Ticker: "BAD", Err: "no data"},
		},
	}
	report.summarize()

	var buf bytes.Buffer
	report.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, "GOOD")
	assert.Contains(t, out, "skipped: no data")
	assert.Contains(t, out, "beats B&H")
	assert.Contains(t, out, "averages over 1 tickers")
}

func TestWriteTradesCSV(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	report := RunReport{
		Outcomes: []TickerOutcome{{
			Ticker: "VOO",
			Trades: []sim.Trade{{
				EntryDate: entry, EntryPrice: 100,
				ExitDate: exit, ExitPrice: 110,
				Profit: 0.10,
			}},
		}},
	}

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, report.WriteTradesCSV(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ticker,entry_date,entry_price,exit_date,exit_price,profit", lines[0])
	assert.Contains(t, lines[1], "VOO,2024-03-01,100,2024-04-15,110,0.1")
}
