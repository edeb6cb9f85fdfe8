// Package geo generates geographic sample points and resolves locations.
package geo

import (
	"math"
	"math/rand"
)

// earthRadiusKm is Earth's mean radius.
const earthRadiusKm = 6371.0

// milesToKm converts statute miles to kilometers.
const milesToKm = 1.60934

// maxRings caps the number of concentric sample rings.
const maxRings = 3

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GenerateSamples produces n sample points distributed around a center.
//
// The center is always index 0. Remaining points are placed on up to three
// concentric rings whose radii grow linearly out to radius; points within a
// ring are evenly spaced by bearing with a small proportional jitter so the
// sampling does not look grid-like. Count and ordering are deterministic for
// a given rng; pass nil to use an unseeded source.
func GenerateSamples(lat, lon, radius float64, unit string, n int, rng *rand.Rand) []Point {
	radiusKm := radius
	if unit == "mi" {
		radiusKm = radius * milesToKm
	}

	if n <= 0 {
		return []Point{}
	}

	samples := make([]Point, 0, n)
	samples = append(samples, Point{Lat: lat, Lon: lon})
	if n == 1 {
		return samples
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	remaining := n - 1
	numRings := remaining / 4
	if numRings < 1 {
		numRings = 1
	}
	if numRings > maxRings {
		numRings = maxRings
	}

	// Distribute points over rings; outer rings absorb the remainder so the
	// output is always exactly n points.
	base := remaining / numRings
	extra := remaining % numRings

	for ring := 1; ring <= numRings; ring++ {
		ringRadius := radiusKm * float64(ring) / float64(numRings)

		count := base
		if ring > numRings-extra {
			count++
		}

		for i := 0; i < count; i++ {
			bearing := 2 * math.Pi * float64(i) / float64(count)

			// ±10% of the ring radius, never collapsing to the center.
			jitter := (rng.Float64()*2 - 1) * 0.1 * ringRadius
			jittered := math.Max(0.1, ringRadius+jitter)

			samples = append(samples, destination(lat, lon, bearing, jittered))
		}
	}

	return samples[:n]
}

// destination computes the point reached by travelling distanceKm from
// (lat, lon) along the given bearing on a spherical Earth.
func destination(lat, lon, bearing, distanceKm float64) Point {
	angular := distanceKm / earthRadiusKm
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180

	newLat := math.Asin(
		math.Sin(latRad)*math.Cos(angular) +
			math.Cos(latRad)*math.Sin(angular)*math.Cos(bearing))

	newLon := lonRad + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(newLat))

	return Point{
		Lat: newLat * 180 / math.Pi,
		Lon: newLon * 180 / math.Pi,
	}
}
