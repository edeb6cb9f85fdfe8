// Package fetcher retrieves page content, escalating from plain HTTP to
// headless-browser rendering when static HTML is not enough.
package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/config"
)

// URLValidator clears a target URL before any request is made.
type URLValidator interface {
	Validate(ctx context.Context, raw string) (string, error)
}

// Fetcher fetches URLs adaptively. Results are cached per URL for one
// analysis run; construct a new Fetcher per run.
type Fetcher struct {
	client    *http.Client
	transport *http.Transport
	cfg       *config.Config
	validator URLValidator
	pool      *browser.Pool
	cache     *resultCache
	logger    *zap.Logger
}

// New creates a Fetcher backed by the given browser pool.
func New(cfg *config.Config, validator URLValidator, pool *browser.Pool, logger *zap.Logger) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Redirects are followed manually to record the chain.
				return http.ErrUseLastResponse
			},
		},
		transport: transport,
		cfg:       cfg,
		validator: validator,
		pool:      pool,
		cache:     newResultCache(),
		logger:    logger,
	}
}

// Fetch retrieves a URL. Validation failures are hard errors; every other
// failure degrades to an empty cached result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	validated, err := f.validator.Validate(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	key := cacheKey(validated)
	lock := f.cache.lockURL(key)
	lock.Lock()
	defer lock.Unlock()

	if cached, ok := f.cache.get(key); ok {
		f.logger.Debug("fetch cache hit", zap.String("url", validated))
		return cached, nil
	}

	result := f.fetch(ctx, validated)
	f.cache.put(key, result)
	return result, nil
}

// fetch runs the adaptive pipeline for a validated URL.
func (f *Fetcher) fetch(ctx context.Context, target string) *FetchResult {
	direct, err := f.fetchDirect(ctx, target)
	if err != nil {
		f.logger.Warn("direct fetch failed, trying browser",
			zap.String("url", target), zap.Error(err))
		rendered, rerr := f.fetchRendered(ctx, target)
		if rerr != nil {
			f.logger.Error("browser fetch failed", zap.String("url", target), zap.Error(rerr))
			return emptyResult(nil)
		}
		return rendered
	}

	// Error responses are reported as-is; rendering cannot improve them.
	if direct.StatusCode >= 400 {
		return direct
	}

	needs, reason := NeedsRendering(direct.HTML)
	if !needs {
		return direct
	}

	f.logger.Info("static HTML insufficient, rendering",
		zap.String("url", target), zap.String("reason", reason))

	rendered, rerr := f.fetchRendered(ctx, target)
	if rerr != nil {
		f.logger.Warn("render fallback failed, keeping static HTML",
			zap.String("url", target), zap.Error(rerr))
		return direct
	}

	// Keep the union of redirects seen on either path.
	rendered.RedirectChain = mergeChains(direct.RedirectChain, rendered.RedirectChain)
	return rendered
}

// fetchDirect performs a plain GET, following redirects manually to record
// the chain.
func (f *Fetcher) fetchDirect(ctx context.Context, target string) (*FetchResult, error) {
	result := &FetchResult{
		Headers:       map[string]string{},
		RedirectChain: make([]string, 0),
	}

	currentURL := target
	for i := 0; i <= f.cfg.MaxRedirects; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		f.setRequestHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			resp.Body.Close()

			if location == "" {
				result.StatusCode = resp.StatusCode
				result.Headers = headerMap(resp.Header)
				return result, nil
			}

			redirectURL, err := resolveRedirectURL(currentURL, location)
			if err != nil {
				return nil, fmt.Errorf("invalid redirect location: %w", err)
			}
			result.RedirectChain = append(result.RedirectChain, currentURL)
			currentURL = redirectURL
			continue
		}

		body, err := f.readBody(resp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		result.HTML = string(body)
		result.StatusCode = resp.StatusCode
		result.Headers = headerMap(resp.Header)
		return result, nil
	}

	return nil, fmt.Errorf("max redirects (%d) exceeded", f.cfg.MaxRedirects)
}

// setRequestHeaders sets common request headers.
func (f *Fetcher) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip")
}

// readBody reads the response body with gzip handling and a size limit.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode error: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	return io.ReadAll(io.LimitReader(reader, f.cfg.MaxBodySize))
}

// Close releases idle connections. Browser instances belong to the pool
// and are closed by its owner.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

func resolveRedirectURL(baseURL, location string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(loc).String(), nil
}

// mergeChains appends entries of b not already present in a.
func mergeChains(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	merged := make([]string, 0, len(a)+len(b))
	for _, u := range a {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		merged = append(merged, u)
	}
	for _, u := range b {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		merged = append(merged, u)
	}
	return merged
}
