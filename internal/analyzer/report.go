package analyzer

import (
	"time"

	"github.com/sitelens/sitelens/internal/localrank"
	"github.com/sitelens/sitelens/internal/nap"
	"github.com/sitelens/sitelens/internal/parser"
	"github.com/sitelens/sitelens/internal/semantic"
)

// Target identifies the analyzed site. Domain is derived once at request
// entry and treated as immutable afterwards.
type Target struct {
	RawURL       string `json:"raw_url"`
	ValidatedURL string `json:"validated_url"`
	Domain       string `json:"domain"`
}

// Performance holds server-speed and delivery measurements. Degraded is set
// when the measurement itself failed and sentinel values are in place.
type Performance struct {
	TTFBMillis    int64 `json:"ttfb_ms"`
	ResourceCount int   `json:"resource_count"`
	GzipEnabled   bool  `json:"gzip_enabled"`
	LazyImages    int   `json:"lazy_images"`
	Degraded      bool  `json:"degraded"`
}

// TitleKeywords reports how well the title covers the stated goal terms.
type TitleKeywords struct {
	GoalTerms    []string `json:"goal_terms"`
	MatchedTerms []string `json:"matched_terms"`
	MissingTerms []string `json:"missing_terms"`
}

// Report is the complete outcome of one analysis run. For a valid target a
// report is always produced; fields that could not be determined carry
// explicit sentinel values rather than being omitted.
type Report struct {
	Target      Target    `json:"target"`
	GeneratedAt time.Time `json:"generated_at"`

	StatusCode    int      `json:"status_code"`
	Rendered      bool     `json:"rendered"`
	RedirectChain []string `json:"redirect_chain"`

	Page          *parser.ParsedPage `json:"page"`
	Performance   Performance        `json:"performance"`
	BrokenLinks   []string           `json:"broken_links"`
	TitleKeywords TitleKeywords      `json:"title_keywords"`

	// Per-provider ranking results, keyed by provider name
	LocalRank map[string]localrank.Result `json:"local_rank"`

	BusinessName  string     `json:"business_name"`
	SiteNAP       nap.Record `json:"site_nap"`
	ListingNAP    nap.Record `json:"listing_nap"`
	NAPConsistent bool       `json:"nap_consistent"`

	Semantic *semantic.Summary `json:"semantic"`

	Recommendations []string `json:"recommendations"`
}

// degradedPerformance is the sentinel used when measurement failed.
func degradedPerformance() Performance {
	return Performance{TTFBMillis: 999, Degraded: true}
}
