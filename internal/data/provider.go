// Package data obtains daily bar histories from the market data provider
// and serves them through an on-disk cache. The core treats everything in
// here as an opaque, read-only Series source.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/metrics"
)

// Provider fetches the daily bar history for one ticker over a lookback
// range ("2y", "10y", "max", ...).
type Provider interface {
	History(ctx context.Context, ticker, lookback string) (domain.Series, error)
}

// ChartClient pulls daily OHLCV bars from a Yahoo-style chart endpoint.
// Requests are throttled by a shared token bucket and guarded by a circuit
// breaker so a misbehaving endpoint trips fast instead of timing out per
// ticker. Throttling never blocks the CPU-bound pipeline work; it only
// paces the network calls.
type ChartClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
}

// ClientOptions configures a ChartClient.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
	Metrics *metrics.Registry
}

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// NewChartClient builds a chart client with sane throttle defaults.
func NewChartClient(opts ClientOptions) *ChartClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RPS == 0 {
		opts.RPS = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 2
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}

	settings := gobreaker.Settings{
		Name:    "chart-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &ChartClient{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		metrics: opts.Metrics,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches the daily series for ticker. Bars with a missing close
// (exchange holidays surface as nulls) are dropped.
func (c *ChartClient) History(ctx context.Context, ticker, lookback string) (domain.Series, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", ticker, err)
	}

	start := time.Now()
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, ticker, lookback)
	})
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	series := raw.(domain.Series)
	if len(series) == 0 {
		c.metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("fetch %s: empty history", ticker)
	}
	return series, nil
}

func (c *ChartClient) fetch(ctx context.Context, ticker, lookback string) (domain.Series, error) {
	u := fmt.Sprintf("%s/%s?range=%s&interval=1d", c.baseURL, url.PathEscape(ticker), url.QueryEscape(lookback))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "baroscan/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart endpoint returned %s", resp.Status)
	}

	var decoded chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if decoded.Chart.Error != nil {
		return nil, fmt.Errorf("chart endpoint error: %s (%s)",
			decoded.Chart.Error.Description, decoded.Chart.Error.Code)
	}
	if len(decoded.Chart.Result) == 0 || len(decoded.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response missing quote data")
	}

	result := decoded.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	series := make(domain.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := domain.Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		series = append(series, bar)
	}

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("chart response for %s: %w", ticker, err)
	}
	log.Debug().Str("ticker", ticker).Int("bars", len(series)).Str("range", lookback).Msg("history fetched")
	return series, nil
}
