package localrank

import (
	"context"
	"fmt"
	"net/url"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/geo"
)

// extractGoogleEntriesScript pulls listing rows out of the results feed.
// Titles live in a headline span inside each place link.
const extractGoogleEntriesScript = `(() => {
	const rows = [];
	const links = document.querySelectorAll('div[role="feed"] a[href*="maps/place"]');
	let position = 1;
	for (const link of links) {
		const headline = link.parentElement
			? link.parentElement.querySelector('div[class*="fontHeadlineSmall"]')
			: null;
		const title = headline ? headline.textContent.trim()
			: (link.getAttribute("aria-label") || "").trim();
		if (!title) continue;
		rows.push({title: title, url: link.href, position: position});
		position++;
	}
	return rows;
})()`

// extractGoogleProfileScript reads profile fields from an opened place
// panel.
const extractGoogleProfileScript = `(() => {
	const pick = (sel) => {
		const el = document.querySelector(sel);
		return el ? el.textContent.trim() : "";
	};
	return {
		title: pick('h1[data-attrid="title"]') || pick("h1"),
		address: pick('button[data-item-id="address"]'),
		phone: pick('button[data-item-id*="phone"]'),
		verified: document.querySelector('img[src*="verified"]') !== null
	};
})()`

type googleProfile struct {
	Title    string `json:"title"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
}

// CheckGoogle probes Google Maps through the browser pool. Point-level
// failures count as unmatched; failure to get any browser time at all
// degrades to the unavailable result.
func (c *Checker) CheckGoogle(ctx context.Context, businessName, domain string, points []geo.Point) Result {
	points = capPoints(points, maxGooglePoints)
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

		entries, err := c.googleSearch(ctx, businessName, point)
		if err != nil {
			c.logger.Debug("google maps query failed",
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
			if p, err := c.googleProfile(ctx, hit.URL); err == nil {
				profile = p
			} else {
				c.logger.Debug("google profile capture failed", zap.Error(err))
			}
		}
	}

	if !anyQueryRan {
		return Unavailable()
	}

	result := aggregate(matches, c.cfg.RankGreenThreshold, c.cfg.RankYellowThreshold)
	result.Profile = profile
	if profile != nil {
		result.IsVerified = profile.Verified
	}
	return result
}

// googleSearch runs one location-biased query and extracts the result rows.
func (c *Checker) googleSearch(ctx context.Context, query string, point geo.Point) ([]entry, error) {
	handle, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser unavailable: %w", err)
	}
	defer c.pool.Release(handle)

	tabCtx, cancel := context.WithTimeout(handle.Context(), c.cfg.BrowserTimeout)
	defer cancel()

	searchURL := fmt.Sprintf("https://www.google.com/maps/search/%s/@%f,%f,15z",
		url.PathEscape(query), point.Lat, point.Lon)

	var entries []entry
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.cfg.RenderSettleDelay),
		chromedp.Evaluate(extractGoogleEntriesScript, &entries),
	)
	if err != nil {
		return nil, fmt.Errorf("maps search failed: %w", err)
	}
	return entries, nil
}

// googleProfile opens a matched listing and captures its profile fields.
func (c *Checker) googleProfile(ctx context.Context, placeURL string) (*Profile, error) {
	handle, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(handle)

	tabCtx, cancel := context.WithTimeout(handle.Context(), c.cfg.BrowserTimeout)
	defer cancel()

	var raw googleProfile
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(placeURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.cfg.RenderSettleDelay),
		chromedp.Evaluate(extractGoogleProfileScript, &raw),
	)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Title:    raw.Title,
		Address:  raw.Address,
		Phone:    raw.Phone,
		Verified: raw.Verified,
	}, nil
}
