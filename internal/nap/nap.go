// Package nap normalizes and compares Name/Address/Phone business identity
// data between a website and a map listing.
package nap

import (
	"regexp"
	"strings"
)

// Record is a business identity triple. Any field may be empty.
type Record struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Empty reports whether the record carries no data at all.
func (r Record) Empty() bool {
	return r.Name == "" && r.Address == "" && r.Phone == ""
}

// addressAbbreviations maps full street-type words to their canonical
// abbreviation. Includes the Spanish forms seen in Latin American addresses.
var addressAbbreviations = []struct {
	full, abbr string
}{
	{"street", "st"}, {"avenue", "ave"}, {"boulevard", "blvd"},
	{"road", "rd"}, {"drive", "dr"}, {"lane", "ln"},
	{"suite", "ste"}, {"apartment", "apt"}, {"building", "bldg"},
	{"calle", "c"}, {"avenida", "av"}, {"carrera", "cra"},
}

var (
	abbrevPatterns []*regexp.Regexp
	nonAddressRune = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
	nonDigit       = regexp.MustCompile(`\D`)

	postalCodePattern  = regexp.MustCompile(`\b\d{5}(?:[-\s]\d{4})?\b`)
	streetWordPattern  = regexp.MustCompile(`(?i)\b(calle|carrera|avenida|av|cra|cll|street|st|avenue|ave|road|rd|boulevard|blvd)\b`)
	cityRegionPattern  = regexp.MustCompile(`\w+,\s*\w{2}`)
	numberWordsPattern = regexp.MustCompile(`\d+\s+\w+(?:\s+\w+){1,3}`)
)

func init() {
	abbrevPatterns = make([]*regexp.Regexp, len(addressAbbreviations))
	for i, a := range addressAbbreviations {
		abbrevPatterns[i] = regexp.MustCompile(`\b` + a.full + `\b\.?`)
	}
}

// NormalizeAddress produces a comparable form of a postal address:
// lowercase, street types abbreviated, punctuation stripped, whitespace
// collapsed.
func NormalizeAddress(address string) string {
	if address == "" {
		return ""
	}

	address = strings.ToLower(address)
	for i, a := range addressAbbreviations {
		address = abbrevPatterns[i].ReplaceAllString(address, a.abbr)
	}
	address = nonAddressRune.ReplaceAllString(address, "")
	return strings.Join(strings.Fields(address), " ")
}

// NormalizePhone reduces a phone number to its comparable digit key: strip
// everything non-numeric, drop a leading international "00" or country "1",
// keep the last 10 digits.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	digits := nonDigit.ReplaceAllString(phone, "")

	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	if strings.HasPrefix(digits, "1") && len(digits) > 10 {
		digits = digits[1:]
	}

	if len(digits) >= 10 {
		return digits[len(digits)-10:]
	}
	return digits
}

// CheckConsistency compares the site's NAP record against a map listing's.
// Consistent means the names match and at least one of address or phone
// matches. An empty listing can never be consistent.
func CheckConsistency(businessName, domain string, site, listing Record) bool {
	if listing.Empty() {
		return false
	}

	nameMatch := false
	if listing.Name != "" {
		listingName := strings.ToLower(listing.Name)
		siteName := strings.ToLower(businessName)
		if strings.Contains(listingName, siteName) ||
			strings.Contains(siteName, listingName) ||
			strings.Contains(listingName, strings.ToLower(domain)) {
			nameMatch = true
		}
	}

	addressMatch := false
	if site.Address != "" && listing.Address != "" {
		siteTokens := strings.Fields(NormalizeAddress(site.Address))
		listingTokens := make(map[string]struct{})
		for _, tok := range strings.Fields(NormalizeAddress(listing.Address)) {
			listingTokens[tok] = struct{}{}
		}
		common := 0
		seen := make(map[string]struct{})
		for _, tok := range siteTokens {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			if _, ok := listingTokens[tok]; ok {
				common++
			}
		}
		addressMatch = common >= 3
	}

	phoneMatch := false
	if site.Phone != "" && listing.Phone != "" {
		phoneMatch = NormalizePhone(site.Phone) == NormalizePhone(listing.Phone)
	}

	return nameMatch && (addressMatch || phoneMatch)
}

// AddressCandidate is a text block that may be a postal address.
type AddressCandidate struct {
	Text  string
	Score int
}

// ScoreAddressCandidate rates how address-like a text block is. Signals:
// postal code +5, street-type keyword +4, "City, Region" +3, number
// followed by words +2.
func ScoreAddressCandidate(text string) int {
	score := 0
	if postalCodePattern.MatchString(text) {
		score += 5
	}
	if streetWordPattern.MatchString(text) {
		score += 4
	}
	if cityRegionPattern.MatchString(text) {
		score += 3
	}
	if numberWordsPattern.MatchString(text) {
		score += 2
	}
	return score
}

// BestAddressCandidate returns the highest-scoring block, or "" when no
// block looks like an address at all.
func BestAddressCandidate(blocks []string) string {
	best := AddressCandidate{}
	for _, text := range blocks {
		if len(text) <= minAddressLength || len(text) >= maxAddressLength {
			continue
		}
		if score := ScoreAddressCandidate(text); score > best.Score {
			best = AddressCandidate{Text: text, Score: score}
		}
	}
	return best.Text
}

const (
	minAddressLength = 10
	maxAddressLength = 200
)
