// Package semantic defines the content-analysis collaborator contract and
// a deterministic fallback used when no provider is wired in.
package semantic

import "context"

// Input is the page material handed to an analyzer.
type Input struct {
	Texts           []string
	Title           string
	MetaDescription string
	Headings        []string
	Goal            string
	Location        string
	Language        string
	ProviderHint    string
}

// Summary is an analyzer's judgement of the content. Engine names the
// backend that produced it so degraded output is distinguishable.
type Summary struct {
	Engine                string   `json:"engine"`
	CoherenceScore        float64  `json:"coherence_score"`
	DetectedIntent        string   `json:"detected_intent"`
	ReadabilityLevel      string   `json:"readability_level"`
	SuggestedImprovements []string `json:"suggested_improvements"`
}

// Analyzer scores page content against the stated goal. Implementations
// must degrade to a flagged fallback Summary instead of failing.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (*Summary, error)
}

// Fallback is the no-provider Analyzer. It always succeeds with a neutral,
// clearly-flagged summary.
type Fallback struct{}

// NewFallback returns the fallback analyzer.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Analyze returns the neutral summary. It never fails.
func (f *Fallback) Analyze(_ context.Context, in Input) (*Summary, error) {
	intent := "informational"
	if in.Goal != "" {
		intent = "goal: " + in.Goal
	}
	return &Summary{
		Engine:           "fallback",
		CoherenceScore:   0.5,
		DetectedIntent:   intent,
		ReadabilityLevel: "B2",
		SuggestedImprovements: []string{
			"semantic analysis was unavailable; re-run with a configured provider",
		},
	}, nil
}
