package localrank

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/geo"
)

func TestAggregateTiers(t *testing.T) {
	tests := []struct {
		name     string
		matches  []match
		tier     string
		avg      float64
		coverage float64
	}{
		{
			name:     "all top hits are green",
			matches:  []match{{true, 1}, {true, 2}, {true, 3}},
			tier:     "green",
			avg:      2.0,
			coverage: 100,
		},
		{
			name:     "mid positions are yellow",
			matches:  []match{{true, 2}, {true, 4}},
			tier:     "yellow",
			avg:      3.0,
			coverage: 100,
		},
		{
			name:     "deep positions are red",
			matches:  []match{{true, 8}, {true, 12}, {false, 0}},
			tier:     "red",
			avg:      10.0,
			coverage: 200.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := aggregate(tt.matches, 2.0, 3.0)
			assert.Equal(t, tt.tier, result.ColorTier)
			require.NotNil(t, result.AverageRank)
			assert.InDelta(t, tt.avg, *result.AverageRank, 0.001)
			assert.InDelta(t, tt.coverage, result.CoveragePercent, 0.001)
		})
	}
}

func TestAggregateNotFound(t *testing.T) {
	result := aggregate([]match{{}, {}, {}}, 2.0, 3.0)
	assert.Equal(t, "not found", result.RankText)
	assert.Equal(t, "gray", result.ColorTier)
	assert.Nil(t, result.AverageRank)
	assert.Zero(t, result.CoveragePercent)
}

func TestAggregateNoMatchesAtAll(t *testing.T) {
	result := aggregate(nil, 2.0, 3.0)
	assert.Equal(t, "unavailable", result.RankText)
	assert.Equal(t, "gray", result.ColorTier)
}

func TestTitleMatches(t *testing.T) {
	tests := []struct {
		title    string
		business string
		domain   string
		want     bool
	}{
		{"Acme Plumbing & Heating", "Acme Plumbing", "acme.test", true},
		{"ACME", "Acme Plumbing Springfield", "acme.test", true},
		{"acme.test", "Acme Plumbing", "acme.test", true},
		{"Budget Pipes", "Acme Plumbing", "acme.test", false},
		{"", "Acme Plumbing", "acme.test", false},
		{"Anything", "", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleMatches(tt.title, tt.business, tt.domain),
			"title=%q business=%q domain=%q", tt.title, tt.business, tt.domain)
	}
}

func TestScanEntriesRespectsTopWindow(t *testing.T) {
	entries := make([]entry, 0, topEntries+2)
	for i := 1; i <= topEntries+2; i++ {
		entries = append(entries, entry{Title: fmt.Sprintf("filler %d", i), Position: i})
	}
	entries[topEntries+1].Title = "Acme Plumbing"

	_, found := scanEntries(entries, "Acme Plumbing", "acme.test")
	assert.False(t, found)

	entries[3].Title = "Acme Plumbing"
	hit, found := scanEntries(entries, "Acme Plumbing", "acme.test")
	assert.True(t, found)
	assert.Equal(t, 4, hit.Position)
}

func newTestChecker(t *testing.T, apiKey string) (*Checker, *browser.Pool) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BingMapsAPIKey = apiKey
	cfg.RequestDelay = time.Millisecond
	pool := browser.NewPool(1, "", cfg.UserAgent, zap.NewNop())
	return New(cfg, pool, zap.NewNop()), pool
}

func TestCheckBingViaAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme Plumbing", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.NotEmpty(t, r.URL.Query().Get("userLocation"))
		fmt.Fprint(w, `{"resourceSets":[{"resources":[
			{"name":"Budget Pipes","Website":"https://budget.test"},
			{"name":"Acme Plumbing","Website":"https://acme.test"}
		]}]}`)
	}))
	defer srv.Close()

	c, pool := newTestChecker(t, "test-key")
	defer pool.Close()
	c.SetBingEndpoint(srv.URL)

	points := []geo.Point{{Lat: 39.8, Lon: -89.6}, {Lat: 39.81, Lon: -89.61}}
	result := c.CheckBing(context.Background(), "Acme Plumbing", "acme.test", points)

	require.NotNil(t, result.AverageRank)
	assert.InDelta(t, 2.0, *result.AverageRank, 0.001)
	assert.Equal(t, "green", result.ColorTier)
	assert.InDelta(t, 100.0, result.CoveragePercent, 0.001)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "Acme Plumbing", result.Profile.Title)
}

func TestCheckBingProfileKeepsFirstHit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"resourceSets":[{"resources":[
				{"name":"Acme Plumbing Springfield","Website":"https://acme.test"}
			]}]}`)
			return
		}
		fmt.Fprint(w, `{"resourceSets":[{"resources":[
			{"name":"Acme Plumbing HQ","Website":"https://acme.test"}
		]}]}`)
	}))
	defer srv.Close()

	c, pool := newTestChecker(t, "test-key")
	defer pool.Close()
	c.SetBingEndpoint(srv.URL)

	points := []geo.Point{{Lat: 39.8, Lon: -89.6}, {Lat: 39.81, Lon: -89.61}}
	result := c.CheckBing(context.Background(), "Acme Plumbing", "acme.test", points)

	// Both points matched but the profile stays with the first hit.
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 100.0, result.CoveragePercent, 0.001)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "Acme Plumbing Springfield", result.Profile.Title)
}

func TestCheckBingAPINoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resourceSets":[{"resources":[{"name":"Budget Pipes"}]}]}`)
	}))
	defer srv.Close()

	c, pool := newTestChecker(t, "test-key")
	defer pool.Close()
	c.SetBingEndpoint(srv.URL)

	result := c.CheckBing(context.Background(), "Acme Plumbing", "acme.test",
		[]geo.Point{{Lat: 39.8, Lon: -89.6}})

	assert.Equal(t, "not found", result.RankText)
	assert.Equal(t, "gray", result.ColorTier)
	assert.Nil(t, result.AverageRank)
}

func TestCheckGoogleWithoutBrowserDegrades(t *testing.T) {
	c, pool := newTestChecker(t, "")
	defer pool.Close()
	require.NoError(t, pool.Close())

	result := c.CheckGoogle(context.Background(), "Acme Plumbing", "acme.test",
		[]geo.Point{{Lat: 39.8, Lon: -89.6}})
	assert.Equal(t, "unavailable", result.RankText)
}

func TestCheckAllIncludesAppleSentinel(t *testing.T) {
	c, pool := newTestChecker(t, "")
	defer pool.Close()
	require.NoError(t, pool.Close())

	results := c.CheckAll(context.Background(), "Acme Plumbing", "acme.test", nil)
	assert.Equal(t, "unavailable", results[ProviderApple].RankText)
	assert.Contains(t, results, ProviderGoogle)
	assert.Contains(t, results, ProviderBing)
}

func TestCheckAllSkipsDisabledProviders(t *testing.T) {
	c, pool := newTestChecker(t, "")
	defer pool.Close()
	require.NoError(t, pool.Close())
	c.cfg.EnableGoogleMapsCheck = false
	c.cfg.EnableBingMapsCheck = false

	results := c.CheckAll(context.Background(), "Acme Plumbing", "acme.test", nil)
	assert.Equal(t, "unavailable", results[ProviderApple].RankText)
	assert.NotContains(t, results, ProviderGoogle)
	assert.NotContains(t, results, ProviderBing)
}

func TestCapPoints(t *testing.T) {
	points := []geo.Point{{}, {}, {}, {}, {}, {}, {}}
	assert.Len(t, capPoints(points, 5), 5)
	assert.Len(t, capPoints(points[:2], 5), 2)
}
