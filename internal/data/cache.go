package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketskies/baroscan/internal/domain"
	"github.com/marketskies/baroscan/internal/metrics"
)

// CachedProvider serves bar histories from JSON files on disk, keyed by
// ticker and lookback range, falling back to the wrapped provider on miss
// or expiry. A fetch failure with a stale cache entry present serves the
// stale entry rather than failing the ticker.
type CachedProvider struct {
	inner   Provider
	dir     string
	ttl     time.Duration
	metrics *metrics.Registry
}

type cacheFile struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Ticker    string        `json:"ticker"`
	Lookback  string        `json:"lookback"`
	Bars      domain.Series `json:"bars"`
}

// NewCachedProvider wraps inner with a disk cache rooted at dir.
func NewCachedProvider(inner Provider, dir string, ttl time.Duration, m *metrics.Registry) *CachedProvider {
	if m == nil {
		m = metrics.Nop()
	}
	return &CachedProvider{inner: inner, dir: dir, ttl: ttl, metrics: m}
}

// History implements Provider.
func (c *CachedProvider) History(ctx context.Context, ticker, lookback string) (domain.Series, error) {
	path := c.path(ticker, lookback)

	if cached, ok := c.read(path); ok {
		if time.Since(cached.FetchedAt) <= c.ttl {
			c.metrics.CacheHits.Inc()
			return cached.Bars, nil
		}
	}
	c.metrics.CacheMisses.Inc()

	series, err := c.inner.History(ctx, ticker, lookback)
	if err != nil {
		// Serve stale data over nothing; the caller decides freshness needs.
		if cached, ok := c.read(path); ok {
			log.Warn().Str("ticker", ticker).Err(err).Msg("fetch failed, serving stale cache entry")
			return cached.Bars, nil
		}
		return nil, err
	}

	if werr := c.write(path, ticker, lookback, series); werr != nil {
		log.Warn().Str("ticker", ticker).Err(werr).Msg("cache write failed")
	}
	return series, nil
}

func (c *CachedProvider) path(ticker, lookback string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(strings.ToUpper(ticker))
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", safe, lookback))
}

func (c *CachedProvider) read(path string) (cacheFile, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cacheFile{}, false
	}
	var cached cacheFile
	if err := json.Unmarshal(raw, &cached); err != nil {
		return cacheFile{}, false
	}
	if len(cached.Bars) == 0 {
		return cacheFile{}, false
	}
	return cached, true
}

func (c *CachedProvider) write(path, ticker, lookback string, series domain.Series) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(cacheFile{
		FetchedAt: time.Now().UTC(),
		Ticker:    strings.ToUpper(ticker),
		Lookback:  lookback,
		Bars:      series,
	})
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
