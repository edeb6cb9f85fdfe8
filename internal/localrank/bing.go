package localrank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/geo"
)

const bingLocalSearchEndpoint = "https://dev.virtualearth.net/REST/v1/LocalSearch/"

// bingLocalSearchResponse is the subset of the LocalSearch payload we read.
type bingLocalSearchResponse struct {
	ResourceSets []struct {
		Resources []struct {
			Name    string `json:"name"`
			Website string `json:"Website"`
		} `json:"resources"`
	} `json:"resourceSets"`
}

// extractBingEntriesScript pulls listing rows from the Bing Maps side list.
const extractBingEntriesScript = `(() => {
	const rows = [];
	let position = 1;
	let cards = document.querySelectorAll(".listViewCard");
	if (cards.length === 0) cards = document.querySelectorAll(".b_dataList h2");
	for (const card of cards) {
		const title = card.textContent.trim();
		if (!title) continue;
		rows.push({title: title, url: "", position: position});
		position++;
	}
	return rows;
})()`

// CheckBing probes Bing Maps, preferring the hosted LocalSearch API and
// falling back to browser scraping when no key is configured or the API
// fails.
func (c *Checker) CheckBing(ctx context.Context, businessName, domain string, points []geo.Point) Result {
	if c.cfg.BingMapsAPIKey != "" {
		result, err := c.bingViaAPI(ctx, businessName, domain, points)
		if err == nil {
			return result
		}
		c.logger.Warn("bing api check failed, falling back to browser", zap.Error(err))
	}
	return c.bingViaBrowser(ctx, businessName, domain, points)
}

// bingViaAPI runs the check through the LocalSearch REST endpoint. Only a
// failure of every single query is an error; per-point failures count as
// unmatched.
func (c *Checker) bingViaAPI(ctx context.Context, businessName, domain string, points []geo.Point) (Result, error) {
	points = capPoints(points, maxBingAPIPoints)
	if len(points) == 0 {
		return Unavailable(), nil
	}

	matches := make([]match, 0, len(points))
	profileCaptured := false
	var profile *Profile
	anyQueryRan := false

	for _, point := range points {
		if err := c.pace(ctx); err != nil {
			break
		}

		entries, err := c.bingAPISearch(ctx, businessName, point)
		if err != nil {
			c.logger.Debug("bing api query failed",
				zap.Float64("lat", point.Lat), zap.Float64("lon", point.Lon), zap.Error(err))
			matches = append(matches, match{})
			continue
		}
		anyQueryRan = true

		hit, found := scanEntries(entries, businessName, domain)
		if !found {
			matches = append(matches, match{})
			continue
		}
		matches = append(matches, match{found: true, position: hit.Position})

		if !profileCaptured {
			profileCaptured = true
			profile = &Profile{Title: hit.Title}
		}
	}

	if !anyQueryRan {
		return Result{}, fmt.Errorf("no bing api query succeeded")
	}

	result := aggregate(matches, c.cfg.RankGreenThreshold, c.cfg.RankYellowThreshold)
	result.Profile = profile
	return result, nil
}

// bingAPISearch issues one LocalSearch query biased to a sample point.
func (c *Checker) bingAPISearch(ctx context.Context, query string, point geo.Point) ([]entry, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("userLocation", fmt.Sprintf("%f,%f", point.Lat, point.Lon))
	params.Set("key", c.cfg.BingMapsAPIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.bingEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodySize))
	if err != nil {
		return nil, err
	}

	var payload bingLocalSearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed local search payload: %w", err)
	}

	entries := make([]entry, 0)
	for _, set := range payload.ResourceSets {
		for i, resource := range set.Resources {
			entries = append(entries, entry{
				Title:    resource.Name,
				URL:      resource.Website,
				Position: i + 1,
			})
		}
		break
	}
	return entries, nil
}

// bingViaBrowser scrapes the Bing Maps UI through the pool.
func (c *Checker) bingViaBrowser(ctx context.Context, businessName, domain string, points []geo.Point) Result {
	points = capPoints(points, maxBingScrapePoints)
	if len(points) == 0 {
		return Unavailable()
	}

	matches := make([]match, 0, len(points))
	profileCaptured := false
	var profile *Profile
	anyQueryRan := false

	for _, point := range points {
		if err := c.pace(ctx); err != nil {
			break
		}

		entries, err := c.bingScrape(ctx, businessName, point)
		if err != nil {
			c.logger.Debug("bing scrape failed",
				zap.Float64("lat", point.Lat), zap.Float64("lon", point.Lon), zap.Error(err))
			matches = append(matches, match{})
			continue
		}
		anyQueryRan = true

		hit, found := scanEntries(entries, businessName, domain)
		if !found {
			matches = append(matches, match{})
			continue
		}
		matches = append(matches, match{found: true, position: hit.Position})

		if !profileCaptured {
			profileCaptured = true
			profile = &Profile{Title: hit.Title}
		}
	}

	if !anyQueryRan {
		return Unavailable()
	}

	result := aggregate(matches, c.cfg.RankGreenThreshold, c.cfg.RankYellowThreshold)
	result.Profile = profile
	return result
}

// bingScrape loads the Bing Maps results page for one point.
func (c *Checker) bingScrape(ctx context.Context, query string, point geo.Point) ([]entry, error) {
	handle, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser unavailable: %w", err)
	}
	defer c.pool.Release(handle)

	tabCtx, cancel := context.WithTimeout(handle.Context(), c.cfg.BrowserTimeout)
	defer cancel()

	searchURL := fmt.Sprintf("https://www.bing.com/maps?q=%s&cp=%f~%f",
		url.QueryEscape(query), point.Lat, point.Lon)

	var entries []entry
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.cfg.RenderSettleDelay),
		chromedp.Evaluate(extractBingEntriesScript, &entries),
	)
	if err != nil {
		return nil, fmt.Errorf("maps scrape failed: %w", err)
	}
	return entries, nil
}
