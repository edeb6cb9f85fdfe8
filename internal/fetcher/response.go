package fetcher

// FetchResult holds everything captured while fetching one URL. It is
// immutable once returned and cached for the remainder of the analysis run.
type FetchResult struct {
	// Final HTML, after browser rendering when the direct fetch was not enough
	HTML string

	// Response headers of the final document
	Headers map[string]string

	// HTTP status of the final document; 0 when the fetch failed entirely
	StatusCode int

	// URLs visited through redirects, in order
	RedirectChain []string

	// Whether the result came from the browser path
	Rendered bool
}

// Empty reports whether the fetch degraded to nothing usable.
func (r *FetchResult) Empty() bool {
	return r == nil || r.HTML == ""
}

// emptyResult is the degraded value cached after a total fetch failure.
func emptyResult(redirects []string) *FetchResult {
	return &FetchResult{
		HTML:          "",
		Headers:       map[string]string{},
		StatusCode:    0,
		RedirectChain: redirects,
	}
}

// headerMap flattens multi-valued HTTP headers to their first value.
func headerMap(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
