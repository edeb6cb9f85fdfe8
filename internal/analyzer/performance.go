package analyzer

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/fetcher"
	"github.com/sitelens/sitelens/internal/parser"
)

// measurePerformance issues one timed request against the target and folds
// in counters already known from the parse. Any failure yields the degraded
// sentinel; performance trouble must never sink the run.
func (o *Orchestrator) measurePerformance(ctx context.Context, target string, fetched *fetcher.FetchResult, page *parser.ParsedPage) Performance {
	perf := degradedPerformance()
	if page != nil {
		perf.ResourceCount = page.Metrics.Scripts + page.Metrics.Stylesheets + page.Metrics.Images
		perf.LazyImages = page.Metrics.LazyImages
	}
	if fetched != nil {
		perf.GzipEnabled = gzipEnabled(fetched.Headers)
	}

	ttfb, err := o.timeToFirstByte(ctx, target)
	if err != nil {
		o.logger.Debug("ttfb measurement failed", zap.String("url", target), zap.Error(err))
		return perf
	}
	perf.TTFBMillis = ttfb.Milliseconds()
	perf.Degraded = false
	return perf
}

// timeToFirstByte measures the delay until the first response byte of a
// fresh GET.
func (o *Orchestrator) timeToFirstByte(ctx context.Context, target string) (time.Duration, error) {
	probeCtx, cancel := context.WithTimeout(ctx, o.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", o.cfg.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	var start time.Time
	var firstByte time.Duration
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte = time.Since(start)
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	start = time.Now()
	resp, err := o.probeClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if firstByte == 0 {
		firstByte = time.Since(start)
	}
	return firstByte, nil
}

func gzipEnabled(headers map[string]string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Encoding") {
			return strings.Contains(strings.ToLower(v), "gzip")
		}
	}
	return false
}
