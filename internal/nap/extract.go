package nap

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// businessSchemaTypes are the schema.org @type values accepted as a business
// entity when reading JSON-LD.
var businessSchemaTypes = map[string]struct{}{
	"LocalBusiness":           {},
	"Organization":            {},
	"Restaurant":              {},
	"Store":                   {},
	"Corporation":             {},
	"EducationalOrganization": {},
	"GovernmentOrganization":  {},
	"NGO":                     {},
	"SportsOrganization":      {},
}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\d{1,3}\s?[\d\s-]{7,15}`),                        // international
	regexp.MustCompile(`\(\d{3}\)\s?\d{3}-\d{4}`),                          // US (123) 456-7890
	regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),                    // 123-456-7890
	regexp.MustCompile(`\d{2}[-.\s]?\d{2}[-.\s]?\d{2}[-.\s]?\d{2}[-.\s]?\d{2}`), // European
}

var titleSeparators = []string{" | ", " - ", " – ", " — ", " » "}

// ExtractBusinessName derives the business name from a parsed page, in
// order of preference: schema.org JSON-LD, og:site_name, the title up to
// its first separator, the first h1, then strong/anchor text in the header.
// Returns "" when nothing usable is found; callers fall back to the domain.
func ExtractBusinessName(doc *goquery.Document) string {
	if data := firstJSONLD(doc); data != nil {
		if typ, _ := data["@type"].(string); typ != "" {
			if _, ok := businessSchemaTypes[typ]; ok {
				if name, _ := data["name"].(string); strings.TrimSpace(name) != "" {
					return strings.TrimSpace(name)
				}
			}
		}
		if publisher, ok := data["publisher"].(map[string]any); ok {
			if name, _ := publisher["name"].(string); strings.TrimSpace(name) != "" {
				return strings.TrimSpace(name)
			}
		}
	}

	if content, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		if name := strings.TrimSpace(content); name != "" {
			return name
		}
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		for _, sep := range titleSeparators {
			if idx := strings.Index(title, sep); idx >= 0 {
				return strings.TrimSpace(title[:idx])
			}
		}
		return title
	}

	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}

	header := doc.Find("header").First()
	if text := strings.TrimSpace(header.Find("strong").First().Text()); text != "" {
		return text
	}
	if text := strings.TrimSpace(header.Find("a").First().Text()); text != "" {
		return text
	}

	return ""
}

// ExtractRecord builds the site-side NAP record from a parsed page.
// Structured data wins; text heuristics fill whatever is left.
func ExtractRecord(doc *goquery.Document, businessName string) Record {
	record := Record{Name: businessName}

	if data := firstJSONLD(doc); data != nil {
		record.Address = schemaAddress(data)
		if phone, _ := data["telephone"].(string); phone != "" {
			record.Phone = phone
		}
	}

	if record.Address == "" {
		var blocks []string
		doc.Find("p, div, span, address").Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				blocks = append(blocks, text)
			}
		})
		record.Address = BestAddressCandidate(blocks)
	}

	if record.Phone == "" {
		record.Phone = extractPhone(doc)
	}

	return record
}

// firstJSONLD decodes the first JSON-LD script block on the page. A leading
// array unwraps to its first object.
func firstJSONLD(doc *goquery.Document) map[string]any {
	raw := doc.Find(`script[type="application/ld+json"]`).First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}

	if list, ok := decoded.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		decoded = list[0]
	}

	data, _ := decoded.(map[string]any)
	return data
}

// schemaAddress flattens a schema.org address, which may be a plain string
// or a PostalAddress object.
func schemaAddress(data map[string]any) string {
	switch addr := data["address"].(type) {
	case string:
		return addr
	case map[string]any:
		parts := make([]string, 0, 5)
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"} {
			if v, _ := addr[key].(string); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// extractPhone scans page text for the first phone-shaped token.
func extractPhone(doc *goquery.Document) string {
	text := doc.Text()
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(text); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}
