package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// docCapture accumulates document-level CDP events. Event callbacks arrive
// on chromedp's dispatch goroutine, which can still be delivering while the
// caller reads, so every access goes through the mutex.
type docCapture struct {
	mu        sync.Mutex
	redirects []string
	status    int
	headers   map[string]string
}

func newDocCapture() *docCapture {
	return &docCapture{
		redirects: make([]string, 0),
		headers:   make(map[string]string),
	}
}

func (d *docCapture) addRedirect(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redirects = append(d.redirects, url)
}

// setResponse records the latest document response; a bypass navigation
// overwrites the challenge page's status and headers.
func (d *docCapture) setResponse(status int, headers map[string]interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	for k, v := range headers {
		if s, ok := v.(string); ok {
			d.headers[k] = s
		}
	}
}

// snapshotInto copies the captured state into a result the caller owns.
func (d *docCapture) snapshotInto(result *FetchResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result.StatusCode = d.status
	result.RedirectChain = append(result.RedirectChain, d.redirects...)
	for k, v := range d.headers {
		result.Headers[k] = v
	}
}

// blockedResourceTypes are resources a render never needs. Skipping them
// keeps page loads fast and cheap.
var blockedResourceTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage:     true,
	network.ResourceTypeMedia:     true,
	network.ResourceTypeFont:      true,
	network.ResourceTypeWebSocket: true,
}

// captchaIndicators mark pages sitting behind a challenge interstitial.
var captchaIndicators = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
	"security check",
	"verify you are human",
	"bot check",
	"cloudflare",
}

// bypassClickScript clicks the first plausible challenge control: a button
// whose text suggests continuation, or a lone checkbox.
const bypassClickScript = `(() => {
	const words = ["continue", "verify", "proceed", "submit"];
	const buttons = document.querySelectorAll("button, input[type=submit], a[role=button]");
	for (const b of buttons) {
		const text = (b.innerText || b.value || "").toLowerCase();
		if (words.some(w => text.includes(w))) { b.click(); return true; }
	}
	const box = document.querySelector("input[type=checkbox]");
	if (box) { box.click(); return true; }
	return false;
})()`

// fetchRendered loads a URL through a pooled browser tab, blocking heavy
// resources and recording the redirect chain from CDP network events.
func (f *Fetcher) fetchRendered(ctx context.Context, target string) (*FetchResult, error) {
	handle, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser unavailable: %w", err)
	}
	defer f.pool.Release(handle)

	tabCtx, cancel := context.WithTimeout(handle.Context(), f.cfg.BrowserTimeout)
	defer cancel()

	capture := newDocCapture()

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				exec := cdp.WithExecutor(tabCtx, chromedp.FromContext(tabCtx).Target)
				if blockedResourceTypes[e.ResourceType] {
					_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(exec)
					return
				}
				_ = fetch.ContinueRequest(e.RequestID).Do(exec)
			}()
		case *network.EventRequestWillBeSent:
			if e.Type == network.ResourceTypeDocument && e.RedirectResponse != nil {
				capture.addRedirect(e.RedirectResponse.URL)
			}
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument {
				capture.setResponse(int(e.Response.Status), e.Response.Headers)
			}
		}
	})

	var html string
	err = chromedp.Run(tabCtx,
		fetch.Enable(),
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.cfg.RenderSettleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			root, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}

	if detectCAPTCHA(html) {
		f.logger.Info("challenge page detected, attempting bypass", zap.String("url", target))
		if recaptured, ok := f.bypassCAPTCHA(tabCtx); ok {
			html = recaptured
		}
	}

	result := &FetchResult{
		HTML:          html,
		Headers:       map[string]string{},
		RedirectChain: make([]string, 0),
		Rendered:      true,
	}
	capture.snapshotInto(result)
	if result.StatusCode == 0 {
		result.StatusCode = 200
	}
	return result, nil
}

// detectCAPTCHA scans page text and element attributes for challenge markers.
func detectCAPTCHA(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	text := strings.ToLower(doc.Text())
	for _, indicator := range captchaIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}

	found := false
	doc.Find("[id], [class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		class, _ := s.Attr("class")
		attrs := strings.ToLower(id + " " + class)
		for _, indicator := range captchaIndicators {
			if strings.Contains(attrs, indicator) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// bypassCAPTCHA makes one best-effort click on a challenge control and
// recaptures the page. Returns false when the page still looks challenged.
func (f *Fetcher) bypassCAPTCHA(tabCtx context.Context) (string, bool) {
	var clicked bool
	if err := chromedp.Run(tabCtx,
		chromedp.Evaluate(bypassClickScript, &clicked),
	); err != nil || !clicked {
		return "", false
	}

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			root, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil || detectCAPTCHA(html) {
		return "", false
	}
	return html, true
}
