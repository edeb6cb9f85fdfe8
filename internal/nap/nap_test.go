package nap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneEquivalentForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"us formatted with country code", "+1 (555) 123-4567", "5551234567"},
		{"dashed", "555-123-4567", "5551234567"},
		{"dotted", "555.123.4567", "5551234567"},
		{"international 00 prefix", "0057 300 123 4567", "3001234567"},
		{"short number kept as-is", "123-4567", "1234567"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in))
		})
	}
}

func TestNormalizePhoneSameKey(t *testing.T) {
	assert.Equal(t, NormalizePhone("+1 (555) 123-4567"), NormalizePhone("555-123-4567"))
}

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"abbreviates street types", "123 Main Street, Springfield", "123 main st springfield"},
		{"spanish forms", "Calle 10 # 43-12, Medellín", "c 10 43-12 medellín"},
		{"collapses whitespace", "  742   Evergreen   Terrace ", "742 evergreen terrace"},
		{"already abbreviated with dot", "10 Oak Ave.", "10 oak ave"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeAddress(tc.in))
		})
	}
}

func TestScoreAddressCandidate(t *testing.T) {
	full := "742 Evergreen Terrace Street, Springfield, IL 62704"
	assert.Equal(t, 5+4+3+2, ScoreAddressCandidate(full))

	assert.Zero(t, ScoreAddressCandidate("Welcome to our homepage"))
	assert.Equal(t, 4, ScoreAddressCandidate("on the street where you live"))
}

func TestBestAddressCandidate(t *testing.T) {
	blocks := []string{
		"Contact us today!",
		"742 Evergreen Terrace Street, Springfield, IL 62704",
		"123 Oak Road",
		"x", // too short
	}
	assert.Equal(t, "742 Evergreen Terrace Street, Springfield, IL 62704", BestAddressCandidate(blocks))

	assert.Empty(t, BestAddressCandidate([]string{"no address here", "none here either"}))
}

func TestCheckConsistency(t *testing.T) {
	site := Record{
		Name:    "Springfield Plumbing Co",
		Address: "742 Evergreen Terrace Street, Springfield, IL 62704",
		Phone:   "+1 (555) 123-4567",
	}

	t.Run("empty listing never consistent", func(t *testing.T) {
		assert.False(t, CheckConsistency("Springfield Plumbing Co", "splumbing.com", site, Record{}))
	})

	t.Run("name and phone match", func(t *testing.T) {
		listing := Record{Name: "Springfield Plumbing", Phone: "555-123-4567"}
		assert.True(t, CheckConsistency("Springfield Plumbing", "splumbing.com", site, listing))
	})

	t.Run("name and address match", func(t *testing.T) {
		listing := Record{
			Name:    "Springfield Plumbing Co",
			Address: "742 Evergreen Terrace St, Springfield IL",
		}
		assert.True(t, CheckConsistency("Springfield Plumbing Co", "splumbing.com", site, listing))
	})

	t.Run("name match alone is not enough", func(t *testing.T) {
		listing := Record{Name: "Springfield Plumbing Co"}
		assert.False(t, CheckConsistency("Springfield Plumbing Co", "splumbing.com", site, listing))
	})

	t.Run("address match without name match fails", func(t *testing.T) {
		listing := Record{
			Name:    "Completely Different Business",
			Address: "742 Evergreen Terrace St, Springfield IL",
		}
		assert.False(t, CheckConsistency("Springfield Plumbing Co", "splumbing.com", site, listing))
	})

	t.Run("domain in listing name counts as name match", func(t *testing.T) {
		listing := Record{Name: "splumbing.com - plumbers", Phone: "5551234567"}
		assert.True(t, CheckConsistency("Some Other Label", "splumbing.com", site, listing))
	})

	t.Run("fewer than three shared address tokens fails", func(t *testing.T) {
		listing := Record{
			Name:    "Springfield Plumbing Co",
			Address: "1 Springfield",
		}
		assert.False(t, CheckConsistency("Springfield Plumbing Co", "splumbing.com", site, listing))
	})
}
