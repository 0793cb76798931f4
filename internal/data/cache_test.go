package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketskies/baroscan/internal/domain"
)

// fakeProvider counts calls and serves a canned series or error.
type fakeProvider struct {
	calls  int
	series domain.Series
	err    error
}

func (f *fakeProvider) History(ctx context.Context, ticker, lookback string) (domain.Series, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func bars(n int) domain.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(domain.Series, n)
	for i := range s {
		s[i] = domain.Bar{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return s
}

func TestCacheHit(t *testing.T) {
	inner := &fakeProvider{series: bars(3)}
	cache := NewCachedProvider(inner, t.TempDir(), time.Hour, nil)
	ctx := context.Background()

	first, err := cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, 1, inner.calls)

	// Second read within the TTL never touches the inner provider.
	second, err := cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first[2].Close, second[2].Close)
}

func TestCacheKeyedByLookback(t *testing.T) {
	inner := &fakeProvider{series: bars(3)}
	cache := NewCachedProvider(inner, t.TempDir(), time.Hour, nil)
	ctx := context.Background()

	_, err := cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	_, err = cache.History(ctx, "VOO", "10y")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCacheTickerCaseInsensitive(t *testing.T) {
	inner := &fakeProvider{series: bars(3)}
	cache := NewCachedProvider(inner, t.TempDir(), time.Hour, nil)
	ctx := context.Background()

	_, err := cache.History(ctx, "voo", "2y")
	require.NoError(t, err)
	_, err = cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheExpiry(t *testing.T) {
	inner := &fakeProvider{series: bars(3)}
	cache := NewCachedProvider(inner, t.TempDir(), time.Nanosecond, nil)
	ctx := context.Background()

	_, err := cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCacheServesStaleOnFetchFailure(t *testing.T) {
	dir := t.TempDir()
	inner := &fakeProvider{series: bars(3)}
	cache := NewCachedProvider(inner, dir, time.Nanosecond, nil)
	ctx := context.Background()

	_, err := cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	inner.err = fmt.Errorf("endpoint down")
	series, err := cache.History(ctx, "VOO", "2y")
	require.NoError(t, err)
	assert.Len(t, series, 3)
}

func TestCacheMissAndFailure(t *testing.T) {
	inner := &fakeProvider{err: fmt.Errorf("endpoint down")}
	cache := NewCachedProvider(inner, t.TempDir(), time.Hour, nil)

	_, err := cache.History(context.Background(), "VOO", "2y")
	assert.Error(t, err)
}
