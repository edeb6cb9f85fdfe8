package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minStaticHTMLLength is the body size below which static HTML is assumed
// to be a client-rendered shell.
const minStaticHTMLLength = 500

// spaRootIDs are container ids used by common front-end frameworks as the
// client-side mount point.
var spaRootIDs = []string{"root", "app", "__next", "application"}

// jsFrameworks are names matched against external script sources.
var jsFrameworks = []string{
	"react", "vue", "angular", "next", "nuxt", "ember", "backbone", "svelte",
}

// contentSelector matches elements that carry real page content.
const contentSelector = "p, h1, h2, h3, h4, h5, h6, ul, ol, table"

// renderPredicate is one independent signal that a page needs JavaScript
// execution to expose its content.
type renderPredicate struct {
	name string
	fn   func(doc *goquery.Document) bool
}

// renderPredicates are evaluated short-circuit in priority order.
var renderPredicates = []renderPredicate{
	{"no_title", func(doc *goquery.Document) bool {
		return doc.Find("title").Length() == 0
	}},
	{"no_content_container", func(doc *goquery.Document) bool {
		return doc.Find("h1").Length() == 0 &&
			doc.Find("main").Length() == 0 &&
			doc.Find("div.content, div.main, div.container").Length() == 0
	}},
	{"script_heavy", func(doc *goquery.Document) bool {
		scripts := doc.Find("script").Length()
		divs := doc.Find("div").Length()
		content := doc.Find(contentSelector).Length()
		return scripts > 8 && content < 5 && divs > 30
	}},
	{"json_payload", func(doc *goquery.Document) bool {
		return doc.Find(`script[type="application/json"]`).Length() > 0
	}},
	{"framework_script", func(doc *goquery.Document) bool {
		found := false
		doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			src = strings.ToLower(src)
			for _, fw := range jsFrameworks {
				if strings.Contains(src, fw) {
					found = true
					return false
				}
			}
			return true
		})
		return found
	}},
	{"spa_root", func(doc *goquery.Document) bool {
		for _, id := range spaRootIDs {
			if doc.Find("div#" + id).Length() > 0 {
				return true
			}
		}
		return false
	}},
	{"sparse_content", func(doc *goquery.Document) bool {
		content := doc.Find(contentSelector).Length()
		divs := doc.Find("div").Length()
		return content < 3 && divs > 15
	}},
}

// NeedsRendering decides whether static HTML is sufficient or the page must
// go through the browser. Returns the name of the first predicate that
// fired, for logging.
func NeedsRendering(html string) (bool, string) {
	if len(strings.TrimSpace(html)) < minStaticHTMLLength {
		return true, "short_body"
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true, "unparseable"
	}

	for _, p := range renderPredicates {
		if p.fn(doc) {
			return true, p.name
		}
	}
	return false, ""
}
