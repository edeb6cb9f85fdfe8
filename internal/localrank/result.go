// Package localrank measures local map-search visibility of a business
// across geo-sampled probe points.
package localrank

import "fmt"

// Profile holds listing fields captured from the first matched result of a
// provider run. It is captured once and never refreshed.
type Profile struct {
	Title    string
	Address  string
	Phone    string
	Verified bool
}

// Result is the per-provider outcome of a ranking check.
type Result struct {
	// Human-readable rank summary, or a sentinel ("not found", "unavailable")
	RankText string

	// green, yellow, red for ranked results; gray when not found or
	// unavailable
	ColorTier string

	// Mean position over matched points; nil when nothing matched
	AverageRank *float64

	// matched points / sampled points, in percent
	CoveragePercent float64

	IsVerified bool
	Profile    *Profile
}

// match is one probe point's outcome.
type match struct {
	found    bool
	position int
}

// Unavailable is the degraded result used when a provider check could not
// run at all.
func Unavailable() Result {
	return Result{
		RankText:  "unavailable",
		ColorTier: "gray",
	}
}

// aggregate folds per-point matches into a Result. greenMax and yellowMax
// are the tier boundaries on the average position.
func aggregate(matches []match, greenMax, yellowMax float64) Result {
	if len(matches) == 0 {
		return Unavailable()
	}

	sum, found := 0, 0
	for _, m := range matches {
		if m.found {
			sum += m.position
			found++
		}
	}

	result := Result{
		CoveragePercent: float64(found) / float64(len(matches)) * 100,
	}

	if found == 0 {
		result.RankText = "not found"
		result.ColorTier = "gray"
		return result
	}

	avg := float64(sum) / float64(found)
	result.AverageRank = &avg
	result.RankText = fmt.Sprintf("#%.1f average over %d of %d points", avg, found, len(matches))

	switch {
	case avg <= greenMax:
		result.ColorTier = "green"
	case avg <= yellowMax:
		result.ColorTier = "yellow"
	default:
		result.ColorTier = "red"
	}
	return result
}

// entry is one listing row scraped or fetched from a provider.
type entry struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}
