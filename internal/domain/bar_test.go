package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestSeriesValidate(t *testing.T) {
	t.Run("ascending passes", func(t *testing.T) {
		s := Series{{Date: day(0)}, {Date: day(1)}, {Date: day(4)}}
		require.NoError(t, s.Validate())
	})

	t.Run("duplicate date fails", func(t *testing.T) {
		s := Series{{Date: day(0)}, {Date: day(0)}}
		assert.Error(t, s.Validate())
	})

	t.Run("out of order fails", func(t *testing.T) {
		s := Series{{Date: day(3)}, {Date: day(1)}}
		assert.Error(t, s.Validate())
	})

	t.Run("empty and single bar pass", func(t *testing.T) {
		assert.NoError(t, Series{}.Validate())
		assert.NoError(t, Series{{Date: day(0)}}.Validate())
	})
}

func TestSeriesAccessors(t *testing.T) {
	s := Series{
		{Date: day(0), Close: 10},
		{Date: day(1), Close: 11},
		{Date: day(2), Close: 12.5},
	}

	assert.Equal(t, []float64{10, 11, 12.5}, s.Closes())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 12.5, last.Close)

	_, ok = Series{}.Last()
	assert.False(t, ok)
}
