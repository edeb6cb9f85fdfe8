package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sitelens/sitelens/internal/analyzer"
	"github.com/sitelens/sitelens/internal/localrank"
	"github.com/sitelens/sitelens/internal/parser"
	"github.com/sitelens/sitelens/internal/storage"
)

func storedFixture() *storage.StoredReport {
	avg := 2.5
	return &storage.StoredReport{
		ID: "rec-123",
		Report: &analyzer.Report{
			Target: analyzer.Target{
				RawURL: "https://acme.test",
				Domain: "acme.test",
			},
			GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			StatusCode:  200,
			Page: &parser.ParsedPage{
				Title:       "Acme Plumbing",
				TitleLength: 13,
				Headings:    []parser.Heading{{Level: 1, Text: "Repairs", WordCount: 1}},
			},
			LocalRank: map[string]localrank.Result{
				localrank.ProviderGoogle: {
					RankText:        "ranked",
					ColorTier:       "yellow",
					AverageRank:     &avg,
					CoveragePercent: 60,
				},
				localrank.ProviderApple: localrank.Unavailable(),
			},
			BusinessName:    "Acme Plumbing",
			Recommendations: []string{"Add a meta description; the page has none."},
		},
		Request: analyzer.Request{
			Goal:     "rank for plumbing services",
			Location: "Springfield",
		},
		CreatedAt: time.Now(),
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, ExportXLSX(storedFixture(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Overview")
	assert.Contains(t, sheets, "Page")
	assert.Contains(t, sheets, "Local Rank")
	assert.Contains(t, sheets, "Recommendations")
	assert.NotContains(t, sheets, "Sheet1")

	id, err := f.GetCellValue("Overview", "B2")
	require.NoError(t, err)
	assert.Equal(t, "rec-123", id)

	rec, err := f.GetCellValue("Recommendations", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Add a meta description; the page has none.", rec)

	provider, err := f.GetCellValue("Local Rank", "A2")
	require.NoError(t, err)
	assert.Equal(t, localrank.ProviderApple, provider)
}
