package analyzer

import "fmt"

// InvalidInputError reports a request parameter outside its allowed range.
// It is one of the two error kinds that cross the package boundary; every
// downstream failure degrades into report fields instead.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// Request describes one analysis run.
type Request struct {
	TargetURL string

	// Free-text ranking goal, e.g. "rank for plumbing services"
	Goal string

	// Business location used for geocoding when no coordinates are given
	Location string

	// Optional explicit center; overrides geocoding of Location
	Latitude  *float64
	Longitude *float64

	RadiusKm    float64
	SampleCount int
	Language    string
}

// Validate checks parameter ranges. URL safety is checked separately by the
// validator so that the error kinds stay distinct.
func (r *Request) Validate() error {
	if r.TargetURL == "" {
		return &InvalidInputError{Field: "targetUrl", Reason: "must not be empty"}
	}
	if r.RadiusKm < 1 || r.RadiusKm > 50 {
		return &InvalidInputError{Field: "radiusKm",
			Reason: fmt.Sprintf("must be between 1 and 50, got %g", r.RadiusKm)}
	}
	if r.SampleCount < 1 || r.SampleCount > 20 {
		return &InvalidInputError{Field: "sampleCount",
			Reason: fmt.Sprintf("must be between 1 and 20, got %d", r.SampleCount)}
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return &InvalidInputError{Field: "latitude/longitude",
			Reason: "must be given together or not at all"}
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return &InvalidInputError{Field: "latitude", Reason: "out of range"}
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return &InvalidInputError{Field: "longitude", Reason: "out of range"}
	}
	return nil
}
