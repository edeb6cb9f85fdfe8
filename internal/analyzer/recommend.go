package analyzer

import (
	"fmt"
	"strings"
)

// goalStopwords are filler words stripped from the goal before keyword
// matching.
var goalStopwords = map[string]bool{
	"rank": true, "for": true, "the": true, "a": true, "an": true,
	"in": true, "on": true, "of": true, "to": true, "and": true,
	"with": true, "near": true, "best": true, "top": true,
}

// analyzeTitleKeywords splits the goal into meaningful terms and checks
// which ones the title covers.
func analyzeTitleKeywords(title, goal string) TitleKeywords {
	result := TitleKeywords{
		GoalTerms:    make([]string, 0),
		MatchedTerms: make([]string, 0),
		MissingTerms: make([]string, 0),
	}

	lowerTitle := strings.ToLower(title)
	for _, term := range strings.Fields(strings.ToLower(goal)) {
		term = strings.Trim(term, ".,!?\"'")
		if term == "" || goalStopwords[term] {
			continue
		}
		result.GoalTerms = append(result.GoalTerms, term)
		if strings.Contains(lowerTitle, term) {
			result.MatchedTerms = append(result.MatchedTerms, term)
		} else {
			result.MissingTerms = append(result.MissingTerms, term)
		}
	}
	return result
}

// buildRecommendations turns report findings into actionable suggestions.
// The list is never empty for a degraded page; a fully healthy page can
// legitimately produce none.
func (o *Orchestrator) buildRecommendations(report *Report) []string {
	recs := make([]string, 0, 8)
	page := report.Page
	cfg := o.cfg

	if page != nil {
		switch {
		case page.TitleLength == 0:
			recs = append(recs, "Add a title tag; the page has none.")
		case page.TitleLength < cfg.TitleMinLength:
			recs = append(recs, fmt.Sprintf(
				"Lengthen the title to at least %d characters (currently %d).",
				cfg.TitleMinLength, page.TitleLength))
		case page.TitleLength > cfg.TitleMaxLength:
			recs = append(recs, fmt.Sprintf(
				"Shorten the title to at most %d characters (currently %d).",
				cfg.TitleMaxLength, page.TitleLength))
		}

		switch {
		case page.MetaDescriptionLength == 0:
			recs = append(recs, "Add a meta description; the page has none.")
		case page.MetaDescriptionLength < cfg.MetaDescMinLength:
			recs = append(recs, fmt.Sprintf(
				"Expand the meta description to %d-%d characters (currently %d).",
				cfg.MetaDescMinLength, cfg.MetaDescMaxLength, page.MetaDescriptionLength))
		case page.MetaDescriptionLength > cfg.MetaDescMaxLength:
			recs = append(recs, fmt.Sprintf(
				"Trim the meta description to at most %d characters (currently %d).",
				cfg.MetaDescMaxLength, page.MetaDescriptionLength))
		}

		h1Count := 0
		for _, h := range page.Headings {
			if h.Level == 1 {
				h1Count++
			}
		}
		if h1Count == 0 {
			recs = append(recs, "Add exactly one H1 heading describing the page.")
		} else if h1Count > 1 {
			recs = append(recs, fmt.Sprintf("Reduce to a single H1 heading (found %d).", h1Count))
		}

		if n := len(page.ImagesWithoutAlt); n > 0 {
			recs = append(recs, fmt.Sprintf("Add alt text to %d image(s) missing it.", n))
		}

		if page.Metrics.Images > 3 && page.Metrics.LazyImages == 0 {
			recs = append(recs, "Enable lazy loading for below-the-fold images.")
		}
	}

	if len(report.TitleKeywords.MissingTerms) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Work these goal terms into the title: %s.",
			strings.Join(report.TitleKeywords.MissingTerms, ", ")))
	}

	if report.Performance.TTFBMillis > int64(cfg.TTFBThresholdMS) {
		recs = append(recs, fmt.Sprintf(
			"Improve server response time; time to first byte is %d ms.",
			report.Performance.TTFBMillis))
	}
	if !report.Performance.GzipEnabled {
		recs = append(recs, "Enable gzip or brotli compression for HTML responses.")
	}

	if len(report.BrokenLinks) > 0 {
		recs = append(recs, fmt.Sprintf("Fix %d broken link(s).", len(report.BrokenLinks)))
	}

	notFoundEverywhere := len(report.LocalRank) > 0
	for _, r := range report.LocalRank {
		if r.AverageRank != nil {
			notFoundEverywhere = false
			break
		}
	}
	if notFoundEverywhere {
		recs = append(recs, "Register the business with map providers; it was not found in local search.")
	}

	if !report.NAPConsistent && !report.ListingNAP.Empty() {
		recs = append(recs, "Align name, address and phone between the website and map listings.")
	}

	return recs
}
