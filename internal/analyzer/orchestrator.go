// Package analyzer composes the analysis pipeline into one report per
// request.
package analyzer

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/fetcher"
	"github.com/sitelens/sitelens/internal/geo"
	"github.com/sitelens/sitelens/internal/localrank"
	"github.com/sitelens/sitelens/internal/nap"
	"github.com/sitelens/sitelens/internal/parser"
	"github.com/sitelens/sitelens/internal/safeurl"
	"github.com/sitelens/sitelens/internal/semantic"
)

// PageFetcher retrieves page content.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResult, error)
}

// LinkChecker reports broken links.
type LinkChecker interface {
	FindBroken(ctx context.Context, links []string) []string
}

// RankChecker runs the local ranking checks across all providers.
type RankChecker interface {
	CheckAll(ctx context.Context, businessName, domain string, points []geo.Point) map[string]localrank.Result
}

// Geocoder resolves a location name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (*geo.Point, error)
}

// URLValidator clears a target before the pipeline touches it. Production
// wiring passes the safeurl validator.
type URLValidator interface {
	Validate(ctx context.Context, raw string) (string, error)
}

// Orchestrator runs the full analysis pipeline. Only InvalidInputError and
// the validator's errors escape Analyze; everything downstream degrades
// into sentinel report fields.
type Orchestrator struct {
	cfg         *config.Config
	validator   URLValidator
	fetcher     PageFetcher
	links       LinkChecker
	ranks       RankChecker
	geocoder    Geocoder
	semantic    semantic.Analyzer
	probeClient *http.Client
	logger      *zap.Logger
}

// New wires an Orchestrator from its collaborators.
func New(
	cfg *config.Config,
	validator URLValidator,
	pageFetcher PageFetcher,
	links LinkChecker,
	ranks RankChecker,
	geocoder Geocoder,
	sem semantic.Analyzer,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		validator:   validator,
		fetcher:     pageFetcher,
		links:       links,
		ranks:       ranks,
		geocoder:    geocoder,
		semantic:    sem,
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		logger:      logger,
	}
}

// Analyze produces a complete report for one request.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	validated, err := o.validator.Validate(ctx, req.TargetURL)
	if err != nil {
		return nil, err
	}
	domain, err := safeurl.Domain(validated)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Target: Target{
			RawURL:       req.TargetURL,
			ValidatedURL: validated,
			Domain:       domain,
		},
		GeneratedAt: time.Now().UTC(),
	}

	fetched, err := o.fetcher.Fetch(ctx, validated)
	if err != nil {
		// The fetcher re-validates; a rejection here is still a hard error.
		return nil, err
	}
	report.StatusCode = fetched.StatusCode
	report.Rendered = fetched.Rendered
	report.RedirectChain = fetched.RedirectChain

	page, perr := parser.Parse(fetched.HTML, validated)
	if perr != nil {
		o.logger.Warn("page parse failed", zap.String("url", validated), zap.Error(perr))
		page, _ = parser.Parse("", validated)
	}
	report.Page = page

	report.TitleKeywords = analyzeTitleKeywords(page.Title, req.Goal)

	if o.cfg.EnablePerformance {
		report.Performance = o.measurePerformance(ctx, validated, fetched, page)
	} else {
		report.Performance = degradedPerformance()
	}

	if o.cfg.EnableBrokenLinks {
		all := append(append([]string{}, page.InternalLinks...), page.ExternalLinks...)
		report.BrokenLinks = o.links.FindBroken(ctx, all)
	} else {
		report.BrokenLinks = make([]string, 0)
	}

	report.BusinessName = o.businessName(fetched.HTML, domain)
	report.SiteNAP = o.siteNAP(fetched.HTML, report.BusinessName)

	o.runLocalRank(ctx, req, report)

	report.ListingNAP = listingNAP(report.LocalRank)
	report.NAPConsistent = nap.CheckConsistency(
		report.BusinessName, domain, report.SiteNAP, report.ListingNAP)

	report.Semantic = o.runSemantic(ctx, req, page)
	report.Recommendations = o.buildRecommendations(report)

	return report, nil
}

// businessName extracts the site's business name, falling back to the
// domain when the markup gives nothing usable.
func (o *Orchestrator) businessName(html, domain string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain
	}
	if name := nap.ExtractBusinessName(doc); name != "" {
		return name
	}
	return domain
}

// siteNAP extracts the site-side name/address/phone record.
func (o *Orchestrator) siteNAP(html, businessName string) nap.Record {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nap.Record{Name: businessName}
	}
	return nap.ExtractRecord(doc, businessName)
}

// runLocalRank resolves the probe center, generates samples and hands the
// checker the full point set. On geocoding failure the checker receives no
// points and every provider degrades to its unavailable sentinel.
func (o *Orchestrator) runLocalRank(ctx context.Context, req Request, report *Report) {
	var points []geo.Point
	if o.cfg.EnableGoogleMapsCheck || o.cfg.EnableBingMapsCheck {
		if center, ok := o.probeCenter(ctx, req); ok {
			points = geo.GenerateSamples(center.Lat, center.Lon, req.RadiusKm, "km", req.SampleCount, nil)
		}
	}
	report.LocalRank = o.ranks.CheckAll(ctx, report.BusinessName, report.Target.Domain, points)
}

// probeCenter picks explicit coordinates when given, otherwise geocodes the
// location string.
func (o *Orchestrator) probeCenter(ctx context.Context, req Request) (geo.Point, bool) {
	if req.Latitude != nil && req.Longitude != nil {
		return geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}, true
	}
	if req.Location == "" {
		return geo.Point{}, false
	}

	point, err := o.geocoder.Geocode(ctx, req.Location)
	if err != nil {
		o.logger.Warn("geocoding failed, skipping local rank",
			zap.String("location", req.Location), zap.Error(err))
		return geo.Point{}, false
	}
	return *point, true
}

// runSemantic calls the content analyzer and absorbs its failure into the
// fallback summary.
func (o *Orchestrator) runSemantic(ctx context.Context, req Request, page *parser.ParsedPage) *semantic.Summary {
	headings := make([]string, 0, len(page.Headings))
	for _, h := range page.Headings {
		headings = append(headings, h.Text)
	}

	summary, err := o.semantic.Analyze(ctx, semantic.Input{
		Texts:           page.Paragraphs,
		Title:           page.Title,
		MetaDescription: page.MetaDescription,
		Headings:        headings,
		Goal:            req.Goal,
		Location:        req.Location,
		Language:        req.Language,
	})
	if err != nil {
		o.logger.Warn("semantic analysis failed, using fallback", zap.Error(err))
		summary, _ = semantic.NewFallback().Analyze(ctx, semantic.Input{Goal: req.Goal})
	}
	return summary
}

// listingNAP derives the map-side record from the first provider that
// captured profile data.
func listingNAP(results map[string]localrank.Result) nap.Record {
	for _, provider := range []string{localrank.ProviderGoogle, localrank.ProviderBing} {
		r, ok := results[provider]
		if !ok || r.Profile == nil {
			continue
		}
		return nap.Record{
			Name:    r.Profile.Title,
			Address: r.Profile.Address,
			Phone:   r.Profile.Phone,
		}
	}
	return nap.Record{}
}
