// Package parser turns fetched markup into structured page facts.
package parser

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Heading is one heading element, any level 1-6.
type Heading struct {
	Level     int
	Text      string
	WordCount int
}

// Image describes an img element missing alternative text.
type Image struct {
	Src    string
	Width  string
	Height string
}

// Metrics holds resource and performance counters for one page.
type Metrics struct {
	Scripts     int
	Stylesheets int
	Images      int
	LazyImages  int
	Preloads    int
	Prefetches  int
	HTMLSizeKB  float64
}

// ParsedPage contains every fact extracted from one page. It is derived
// deterministically from the HTML and never mutated after creation.
type ParsedPage struct {
	Title                 string
	TitleLength           int
	MetaDescription       string
	MetaDescriptionLength int

	// Robots directive; "index,follow" when the page does not set one
	Robots    string
	Canonical string

	// Headings in encounter order across all levels
	Headings   []Heading
	Paragraphs []string

	ImagesWithoutAlt []Image

	// De-duplicated resolved absolute URLs
	InternalLinks []string
	ExternalLinks []string

	// HTML5 semantic tags present at least once
	SemanticTags []string

	// Structured-data formats present at least once
	StructuredData []string

	Metrics Metrics
}

// semanticTagNames are the HTML5 landmark tags worth inventorying.
var semanticTagNames = []string{
	"header", "nav", "main", "article", "section", "aside", "footer", "figure",
}

// parseState carries traversal bookkeeping that does not belong in the
// output.
type parseState struct {
	base *url.URL

	// Host of the page itself; a base tag changes resolution but not
	// internal/external classification
	pageHost string

	linkSeen  map[string]bool
	semantics map[string]bool
	formats   map[string]bool
}

// Parse extracts structured facts from HTML, resolving relative references
// against baseURL. Parsing is forgiving; malformed markup yields whatever
// the tree builder recovers.
func Parse(htmlContent, baseURL string) (*ParsedPage, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	page := &ParsedPage{
		Headings:         make([]Heading, 0),
		Paragraphs:       make([]string, 0),
		ImagesWithoutAlt: make([]Image, 0),
		InternalLinks:    make([]string, 0),
		ExternalLinks:    make([]string, 0),
		SemanticTags:     make([]string, 0),
		StructuredData:   make([]string, 0),
	}
	page.Metrics.HTMLSizeKB = float64(len(htmlContent)) / 1024.0

	state := &parseState{
		base:      base,
		pageHost:  base.Hostname(),
		linkSeen:  make(map[string]bool),
		semantics: make(map[string]bool),
		formats:   make(map[string]bool),
	}

	traverse(doc, page, state)

	page.TitleLength = len([]rune(page.Title))
	page.MetaDescriptionLength = len([]rune(page.MetaDescription))
	if page.Robots == "" {
		page.Robots = "index,follow"
	}

	for _, tag := range semanticTagNames {
		if state.semantics[tag] {
			page.SemanticTags = append(page.SemanticTags, tag)
		}
	}
	for _, format := range []string{"JSON-LD", "OpenGraph", "TwitterCard", "Microdata", "RDFa"} {
		if state.formats[format] {
			page.StructuredData = append(page.StructuredData, format)
		}
	}

	return page, nil
}

func traverse(n *html.Node, page *ParsedPage, state *parseState) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if page.Title == "" {
				page.Title = strings.TrimSpace(textContent(n))
			}

		case "base":
			if href := getAttr(n, "href"); href != "" {
				if u, err := url.Parse(href); err == nil {
					state.base = state.base.ResolveReference(u)
				}
			}

		case "meta":
			parseMeta(n, page, state)

		case "link":
			parseLinkTag(n, page, state)

		case "a":
			parseAnchor(n, page, state)

		case "img":
			parseImage(n, page, state)

		case "script":
			page.Metrics.Scripts++
			if getAttr(n, "type") == "application/ld+json" {
				state.formats["JSON-LD"] = true
			}

		case "h1", "h2", "h3", "h4", "h5", "h6":
			text := strings.TrimSpace(textContent(n))
			if text != "" {
				page.Headings = append(page.Headings, Heading{
					Level:     int(n.Data[1] - '0'),
					Text:      text,
					WordCount: len(strings.Fields(text)),
				})
			}

		case "p":
			text := strings.TrimSpace(textContent(n))
			if text != "" {
				page.Paragraphs = append(page.Paragraphs, text)
			}
		}

		for _, tag := range semanticTagNames {
			if n.Data == tag {
				state.semantics[tag] = true
			}
		}
		if hasAttr(n, "itemscope") || hasAttr(n, "itemtype") {
			state.formats["Microdata"] = true
		}
		if hasAttr(n, "typeof") || hasAttr(n, "vocab") {
			state.formats["RDFa"] = true
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverse(c, page, state)
	}
}

func parseMeta(n *html.Node, page *ParsedPage, state *parseState) {
	name := strings.ToLower(getAttr(n, "name"))
	property := strings.ToLower(getAttr(n, "property"))
	content := getAttr(n, "content")

	switch {
	case name == "description":
		page.MetaDescription = content
	case name == "robots":
		page.Robots = content
	case strings.HasPrefix(property, "og:"):
		state.formats["OpenGraph"] = true
	case strings.HasPrefix(name, "twitter:") || strings.HasPrefix(property, "twitter:"):
		state.formats["TwitterCard"] = true
	}
}

func parseLinkTag(n *html.Node, page *ParsedPage, state *parseState) {
	rel := strings.ToLower(getAttr(n, "rel"))
	href := getAttr(n, "href")

	switch rel {
	case "canonical":
		page.Canonical = resolveURL(state.base, href)
	case "stylesheet":
		page.Metrics.Stylesheets++
	case "preload":
		page.Metrics.Preloads++
	case "prefetch", "dns-prefetch":
		page.Metrics.Prefetches++
	}
}

func parseAnchor(n *html.Node, page *ParsedPage, state *parseState) {
	href := getAttr(n, "href")
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return
	}

	resolved := resolveURL(state.base, href)
	if resolved == "" || state.linkSeen[resolved] {
		return
	}
	state.linkSeen[resolved] = true

	target, err := url.Parse(resolved)
	if err != nil {
		return
	}
	if strings.EqualFold(target.Hostname(), state.pageHost) {
		page.InternalLinks = append(page.InternalLinks, resolved)
	} else {
		page.ExternalLinks = append(page.ExternalLinks, resolved)
	}
}

func parseImage(n *html.Node, page *ParsedPage, state *parseState) {
	page.Metrics.Images++
	if strings.EqualFold(getAttr(n, "loading"), "lazy") || hasAttr(n, "data-src") {
		page.Metrics.LazyImages++
	}

	if hasAttr(n, "alt") {
		return
	}

	src := getAttr(n, "src")
	if src == "" {
		src = getAttr(n, "data-src")
	}
	page.ImagesWithoutAlt = append(page.ImagesWithoutAlt, Image{
		Src:    resolveURL(state.base, src),
		Width:  getAttr(n, "width"),
		Height: getAttr(n, "height"),
	})
}

func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
