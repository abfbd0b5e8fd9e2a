package stats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
)

func TestSeriesFetchAndFilter(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/indicators/"+IndicatorObesity, r.URL.Path)
		assert.Equal(t, "PL", r.URL.Query().Get("country"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"country":"PL","indicator":"NCD_BMI_30A","points":[
			{"year":2009,"value":18.1},
			{"year":2010,"value":19.2},
			{"year":2011,"value":20.3},
			{"year":2031,"value":99.9}
		]}`)
	}))
	defer srv.Close()

	c := NewClient("health", srv.URL, "secret", time.Minute, zerolog.Nop())
	series, err := c.Series(context.Background(), IndicatorObesity, "PL", 2010, 2020)
	require.NoError(t, err)

	// Points outside the requested window are dropped.
	assert.Equal(t, Series{2010: 19.2, 2011: 20.3}, series)
	assert.Equal(t, 1, calls)
}

func TestSeriesCachedWithinTTL(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"points":[{"year":2015,"value":1.5}]}`)
	}))
	defer srv.Close()

	c := NewClient("economic", srv.URL, "", time.Minute, zerolog.Nop())
	for i := 0; i < 3; i++ {
		series, err := c.Series(context.Background(), IndicatorGDP, "DE", 2010, 2020)
		require.NoError(t, err)
		assert.Equal(t, 1.5, series[2015])
	}
	assert.Equal(t, 1, calls, "repeat fetches within the TTL must hit the cache")

	// A different period is a different cache key.
	_, err := c.Series(context.Background(), IndicatorGDP, "DE", 2012, 2020)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSeriesExpiredEntryRefetched(t *testing.T) {
	cache := newTTLCache(time.Minute)
	base := time.Now()
	cache.now = func() time.Time { return base }
	cache.put("k", Series{2000: 1})

	_, ok := cache.get("k")
	assert.True(t, ok)

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = cache.get("k")
	assert.False(t, ok)
}

func TestSeriesProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("health", srv.URL, "", 0, zerolog.Nop())
	_, err := c.Series(context.Background(), IndicatorActivity, "FR", 2010, 2020)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIndicatorsFor(t *testing.T) {
	tests := []struct {
		kind     domain.AnalysisKind
		health   string
		economic string
		ok       bool
	}{
		{domain.AnalysisObesityGDP, IndicatorObesity, IndicatorGDP, true},
		{domain.AnalysisLifeExpectancyGDP, IndicatorLifeExpectancy, IndicatorGDP, true},
		{domain.AnalysisActivityUnemployment, IndicatorActivity, IndicatorUnemployment, true},
		{domain.AnalysisNutritionIncome, IndicatorNutrition, IndicatorIncome, true},
		{domain.AnalysisKind("bogus"), "", "", false},
	}
	for _, tt := range tests {
		h, e, ok := IndicatorsFor(tt.kind)
		assert.Equal(t, tt.health, h)
		assert.Equal(t, tt.economic, e)
		assert.Equal(t, tt.ok, ok)
	}
}
