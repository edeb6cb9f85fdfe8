package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGeocodeParsesFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Springfield", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"39.7817","lon":"-89.6501"},{"lat":"0","lon":"0"}]`))
	}))
	defer srv.Close()

	g := NewGeocoder("sitelens-test", 5*time.Second, zap.NewNop())
	g.SetBaseURL(srv.URL)

	p, err := g.Geocode(context.Background(), "Springfield")
	require.NoError(t, err)
	assert.InDelta(t, 39.7817, p.Lat, 1e-6)
	assert.InDelta(t, -89.6501, p.Lon, 1e-6)
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewGeocoder("sitelens-test", 5*time.Second, zap.NewNop())
	g.SetBaseURL(srv.URL)

	_, err := g.Geocode(context.Background(), "Nowhere At All")
	assert.Error(t, err)
}

func TestGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGeocoder("sitelens-test", 5*time.Second, zap.NewNop())
	g.SetBaseURL(srv.URL)

	_, err := g.Geocode(context.Background(), "Springfield")
	assert.Error(t, err)
}
