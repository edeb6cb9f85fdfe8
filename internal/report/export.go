// Package report renders stored analysis records into documents.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sitelens/sitelens/internal/storage"
)

// tierColors map rank color tiers to cell fill colors.
var tierColors = map[string]string{
	"green":  "C8E6C9",
	"yellow": "FFF9C4",
	"red":    "FFCDD2",
	"gray":   "EEEEEE",
}

// ExportXLSX writes a stored report as a workbook with one sheet per
// report section.
func ExportXLSX(stored *storage.StoredReport, filePath string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00C853"}},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})

	writeOverviewSheet(f, stored, headerStyle)
	writePageSheet(f, stored, headerStyle)
	writeLocalRankSheet(f, stored, headerStyle)
	writeRecommendationsSheet(f, stored, headerStyle)

	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeRows writes a header row followed by data rows and sizes the
// columns.
func writeRows(f *excelize.File, sheet string, headerStyle int, header []string, rows [][]string) {
	f.NewSheet(sheet)

	for i, title := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	for i := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 40)
	}
}

func writeOverviewSheet(f *excelize.File, stored *storage.StoredReport, headerStyle int) {
	rep := stored.Report
	rows := [][]string{
		{"Record ID", stored.ID},
		{"Target", rep.Target.RawURL},
		{"Domain", rep.Target.Domain},
		{"Goal", stored.Request.Goal},
		{"Location", stored.Request.Location},
		{"Status code", fmt.Sprintf("%d", rep.StatusCode)},
		{"Rendered via browser", fmt.Sprintf("%t", rep.Rendered)},
		{"Business name", rep.BusinessName},
		{"NAP consistent", fmt.Sprintf("%t", rep.NAPConsistent)},
		{"TTFB (ms)", fmt.Sprintf("%d", rep.Performance.TTFBMillis)},
		{"Gzip enabled", fmt.Sprintf("%t", rep.Performance.GzipEnabled)},
		{"Generated at", rep.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if rep.Semantic != nil {
		rows = append(rows,
			[]string{"Semantic engine", rep.Semantic.Engine},
			[]string{"Coherence score", fmt.Sprintf("%.2f", rep.Semantic.CoherenceScore)},
			[]string{"Readability", rep.Semantic.ReadabilityLevel},
		)
	}
	writeRows(f, "Overview", headerStyle, []string{"Field", "Value"}, rows)
}

func writePageSheet(f *excelize.File, stored *storage.StoredReport, headerStyle int) {
	page := stored.Report.Page
	if page == nil {
		return
	}

	rows := [][]string{
		{"Title", page.Title, fmt.Sprintf("%d chars", page.TitleLength)},
		{"Meta description", page.MetaDescription, fmt.Sprintf("%d chars", page.MetaDescriptionLength)},
		{"Robots", page.Robots, ""},
		{"Canonical", page.Canonical, ""},
		{"Internal links", fmt.Sprintf("%d", len(page.InternalLinks)), ""},
		{"External links", fmt.Sprintf("%d", len(page.ExternalLinks)), ""},
		{"Images without alt", fmt.Sprintf("%d", len(page.ImagesWithoutAlt)), ""},
		{"Structured data", strings.Join(page.StructuredData, ", "), ""},
		{"Semantic tags", strings.Join(page.SemanticTags, ", "), ""},
	}
	for _, h := range page.Headings {
		rows = append(rows, []string{
			fmt.Sprintf("H%d", h.Level), h.Text, fmt.Sprintf("%d words", h.WordCount),
		})
	}
	for _, link := range stored.Report.BrokenLinks {
		rows = append(rows, []string{"Broken link", link, ""})
	}

	writeRows(f, "Page", headerStyle, []string{"Item", "Value", "Detail"}, rows)
}

func writeLocalRankSheet(f *excelize.File, stored *storage.StoredReport, headerStyle int) {
	providers := make([]string, 0, len(stored.Report.LocalRank))
	for name := range stored.Report.LocalRank {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	rows := make([][]string, 0, len(providers))
	for _, name := range providers {
		r := stored.Report.LocalRank[name]
		avg := "-"
		if r.AverageRank != nil {
			avg = fmt.Sprintf("%.1f", *r.AverageRank)
		}
		rows = append(rows, []string{
			name, r.RankText, r.ColorTier, avg,
			fmt.Sprintf("%.0f%%", r.CoveragePercent),
			fmt.Sprintf("%t", r.IsVerified),
		})
	}

	sheet := "Local Rank"
	writeRows(f, sheet, headerStyle,
		[]string{"Provider", "Rank", "Tier", "Average", "Coverage", "Verified"}, rows)

	// Tint the tier column by its value.
	for i, name := range providers {
		tier := stored.Report.LocalRank[name].ColorTier
		color, ok := tierColors[tier]
		if !ok {
			continue
		}
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(3, i+2)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func writeRecommendationsSheet(f *excelize.File, stored *storage.StoredReport, headerStyle int) {
	rows := make([][]string, 0, len(stored.Report.Recommendations))
	for i, rec := range stored.Report.Recommendations {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), rec})
	}
	writeRows(f, "Recommendations", headerStyle, []string{"#", "Recommendation"}, rows)
}
