package localrank

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/geo"
)

// Provider names used as keys in the orchestrator's report.
const (
	ProviderGoogle = "google_maps"
	ProviderBing   = "bing_maps"
	ProviderApple  = "apple_maps"
)

// pointCaps bound how many geo points each provider path may query. Browser
// scraping is the most expensive and gets the tightest cap.
const (
	maxGooglePoints     = 5
	maxBingAPIPoints    = 5
	maxBingScrapePoints = 3
)

// topEntries is how many listing rows are considered per query.
const topEntries = 15

// Checker runs per-provider ranking checks over geo sample points.
type Checker struct {
	pool         *browser.Pool
	client       *http.Client
	cfg          *config.Config
	limiter      *rate.Limiter
	bingEndpoint string
	logger       *zap.Logger
}

// New creates a Checker. Map queries across all providers share one rate
// limiter so a single analysis cannot hammer the providers.
func New(cfg *config.Config, pool *browser.Pool, logger *zap.Logger) *Checker {
	interval := rate.Every(cfg.RequestDelay)
	return &Checker{
		pool:         pool,
		client:       &http.Client{Timeout: cfg.FetchTimeout},
		cfg:          cfg,
		limiter:      rate.NewLimiter(interval, 1),
		bingEndpoint: bingLocalSearchEndpoint,
		logger:       logger,
	}
}

// SetBingEndpoint overrides the LocalSearch endpoint, for tests.
func (c *Checker) SetBingEndpoint(endpoint string) {
	c.bingEndpoint = endpoint
}

// CheckAll runs every enabled provider and returns results keyed by provider
// name. Apple Maps has no automatable surface, so it always reports
// unavailable; providers disabled in the config are omitted entirely.
func (c *Checker) CheckAll(ctx context.Context, businessName, domain string, points []geo.Point) map[string]Result {
	results := map[string]Result{
		ProviderApple: Unavailable(),
	}
	if c.cfg.EnableGoogleMapsCheck {
		results[ProviderGoogle] = c.CheckGoogle(ctx, businessName, domain, points)
	}
	if c.cfg.EnableBingMapsCheck {
		results[ProviderBing] = c.CheckBing(ctx, businessName, domain, points)
	}
	return results
}

// titleMatches applies the listing match rule: case-insensitive substring
// in either direction against the domain or the business name.
func titleMatches(title, businessName, domain string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, candidate := range []string{strings.ToLower(businessName), strings.ToLower(domain)} {
		if candidate == "" {
			continue
		}
		if strings.Contains(t, candidate) || strings.Contains(candidate, t) {
			return true
		}
	}
	return false
}

// scanEntries finds the first matching entry among the top rows.
func scanEntries(entries []entry, businessName, domain string) (entry, bool) {
	for i, e := range entries {
		if i == topEntries {
			break
		}
		if titleMatches(e.Title, businessName, domain) {
			return e, true
		}
	}
	return entry{}, false
}

// capPoints truncates the sample list to a provider's point cap.
func capPoints(points []geo.Point, limit int) []geo.Point {
	if len(points) > limit {
		return points[:limit]
	}
	return points
}

// pace blocks until the shared limiter admits another map query.
func (c *Checker) pace(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}
