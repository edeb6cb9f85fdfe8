package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	centerLat = 6.2442 // Medellín
	centerLon = -75.5812
)

func TestGenerateSamplesSinglePointIsCenter(t *testing.T) {
	samples := GenerateSamples(centerLat, centerLon, 5, "km", 1, nil)

	require.Len(t, samples, 1)
	assert.Equal(t, Point{Lat: centerLat, Lon: centerLon}, samples[0])
}

func TestGenerateSamplesExactCountWithCenterFirst(t *testing.T) {
	for _, n := range []int{2, 3, 5, 9, 10, 13, 20} {
		rng := rand.New(rand.NewSource(42))
		samples := GenerateSamples(centerLat, centerLon, 5, "km", n, rng)

		require.Len(t, samples, n, "n=%d", n)
		assert.Equal(t, Point{Lat: centerLat, Lon: centerLon}, samples[0], "n=%d", n)
	}
}

func TestGenerateSamplesZeroAndNegative(t *testing.T) {
	assert.Empty(t, GenerateSamples(centerLat, centerLon, 5, "km", 0, nil))
	assert.Empty(t, GenerateSamples(centerLat, centerLon, 5, "km", -3, nil))
}

func TestGenerateSamplesDeterministicForSeed(t *testing.T) {
	a := GenerateSamples(centerLat, centerLon, 5, "km", 10, rand.New(rand.NewSource(7)))
	b := GenerateSamples(centerLat, centerLon, 5, "km", 10, rand.New(rand.NewSource(7)))

	assert.Equal(t, a, b)
}

func TestGenerateSamplesStayWithinJitteredRadius(t *testing.T) {
	const radiusKm = 5.0
	samples := GenerateSamples(centerLat, centerLon, radiusKm, "km", 20, rand.New(rand.NewSource(1)))

	for i, p := range samples {
		d := haversineKm(centerLat, centerLon, p.Lat, p.Lon)
		// Outermost ring carries up to 10% jitter.
		assert.LessOrEqualf(t, d, radiusKm*1.1+0.01, "sample %d too far: %.3f km", i, d)
	}
}

func TestGenerateSamplesConvertsMiles(t *testing.T) {
	const radiusMi = 5.0
	samples := GenerateSamples(centerLat, centerLon, radiusMi, "mi", 9, rand.New(rand.NewSource(3)))

	var maxDist float64
	for _, p := range samples {
		if d := haversineKm(centerLat, centerLon, p.Lat, p.Lon); d > maxDist {
			maxDist = d
		}
	}

	// The outer ring should reach near the mile-converted radius, well past
	// what a 5 km radius could produce.
	assert.Greater(t, maxDist, 5.0*1.1)
	assert.LessOrEqual(t, maxDist, radiusMi*milesToKm*1.1+0.01)
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const r = earthRadiusKm
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Asin(math.Sqrt(a))
}
