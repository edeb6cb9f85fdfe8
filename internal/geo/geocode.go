package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// defaultNominatimURL is the public Nominatim search endpoint.
const defaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// Geocoder resolves free-form location strings to coordinates.
type Geocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *zap.Logger
}

// NewGeocoder creates a Nominatim-backed geocoder. Nominatim's usage policy
// requires an identifying User-Agent.
func NewGeocoder(userAgent string, timeout time.Duration, logger *zap.Logger) *Geocoder {
	return &Geocoder{
		client:    &http.Client{Timeout: timeout},
		baseURL:   defaultNominatimURL,
		userAgent: userAgent,
		logger:    logger,
	}
}

// SetBaseURL overrides the search endpoint. Used by tests.
func (g *Geocoder) SetBaseURL(u string) {
	g.baseURL = u
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a location string to a Point. Returns an error when the
// service is unreachable or the location is unknown; callers treat both as a
// degraded, non-fatal condition.
func (g *Geocoder) Geocode(ctx context.Context, location string) (*Point, error) {
	query := url.Values{}
	query.Set("q", location)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode service returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for location %q", location)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	g.logger.Debug("geocoded location",
		zap.String("location", location),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	return &Point{Lat: lat, Lon: lon}, nil
}
