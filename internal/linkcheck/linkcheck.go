// Package linkcheck probes link liveness with bounded concurrency.
package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Checker probes a list of URLs and reports the broken ones.
type Checker struct {
	client      *http.Client
	userAgent   string
	maxLinks    int
	concurrency int64
	logger      *zap.Logger
}

// New creates a Checker. maxLinks caps how many links are probed per call;
// concurrency bounds simultaneous probes.
func New(probeTimeout time.Duration, userAgent string, maxLinks, concurrency int, logger *zap.Logger) *Checker {
	if maxLinks < 1 {
		maxLinks = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Checker{
		client: &http.Client{
			Timeout: probeTimeout,
		},
		userAgent:   userAgent,
		maxLinks:    maxLinks,
		concurrency: int64(concurrency),
		logger:      logger,
	}
}

// FindBroken returns the subset of links that fail a liveness probe, in the
// input's order. Only the first maxLinks links are probed; non-HTTP links
// are skipped. A probe error or timeout counts as broken.
func (c *Checker) FindBroken(ctx context.Context, links []string) []string {
	candidates := make([]string, 0, c.maxLinks)
	for _, link := range links {
		if len(candidates) == c.maxLinks {
			break
		}
		if !isProbeable(link) {
			continue
		}
		candidates = append(candidates, link)
	}

	sem := semaphore.NewWeighted(c.concurrency)
	var (
		mu     sync.Mutex
		broken = make(map[string]int, len(candidates))
		wg     sync.WaitGroup
	)

	for i, link := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone; remaining links are conservatively broken.
			mu.Lock()
			for j := i; j < len(candidates); j++ {
				broken[candidates[j]] = j
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(index int, target string) {
			defer wg.Done()
			defer sem.Release(1)
			if !c.probe(ctx, target) {
				mu.Lock()
				broken[target] = index
				mu.Unlock()
			}
		}(i, link)
	}
	wg.Wait()

	ordered := make([]string, 0, len(broken))
	for link := range broken {
		ordered = append(ordered, link)
	}
	sort.Slice(ordered, func(a, b int) bool {
		return broken[ordered[a]] < broken[ordered[b]]
	})
	return ordered
}

// probe issues a lightweight existence check. True means alive.
func (c *Checker) probe(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("link probe failed", zap.String("url", target), zap.Error(err))
		return false
	}
	resp.Body.Close()

	// Some servers reject HEAD outright; retry those with GET before
	// declaring the link broken.
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return c.probeGet(ctx, target)
	}
	return resp.StatusCode < 400
}

func (c *Checker) probeGet(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

func isProbeable(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
