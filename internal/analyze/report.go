package analyze

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteCSV exports the newline report as flat rows for spreadsheet analysis.
// Overall rows use "ALL" as the caption type.
func (r *NewlineReport) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	rows := [][]string{
		{"Data Type", "Specific Type", "Caption Type", "Total Count", "With Newline", "Percentage"},
	}

	appendRow := func(dataType, specificType, captionType string, stats *TypeStats) {
		rows = append(rows, []string{
			dataType,
			specificType,
			captionType,
			fmt.Sprintf("%d", stats.Total),
			fmt.Sprintf("%d", stats.WithNewline),
			fmt.Sprintf("%.2f", stats.Percentage),
		})
	}

	for _, critiqueType := range sortedKeys(r.CritiqueOverall) {
		appendRow("CRITIQUE", critiqueType, "ALL", r.CritiqueOverall[critiqueType])
	}
	for _, captionAnalysisType := range sortedKeys(r.CaptionOverall) {
		appendRow("CAPTION", captionAnalysisType, "ALL", r.CaptionOverall[captionAnalysisType])
	}
	for _, critiqueType := range sortedKeys(r.CritiqueByType) {
		perType := r.CritiqueByType[critiqueType]
		for _, captionType := range sortedKeys(perType) {
			appendRow("CRITIQUE", critiqueType, captionType, perType[captionType])
		}
	}
	for _, captionAnalysisType := range sortedKeys(r.CaptionByType) {
		perType := r.CaptionByType[captionAnalysisType]
		for _, captionType := range sortedKeys(perType) {
			appendRow("CAPTION", captionAnalysisType, captionType, perType[captionType])
		}
	}

	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// indicator buckets a percentage for the markdown tables.
func indicator(percentage float64) string {
	switch {
	case percentage > 50:
		return "🔴"
	case percentage > 20:
		return "🟡"
	case percentage > 0:
		return "🟢"
	default:
		return "✅"
	}
}

// WriteMarkdown renders the newline report as a readable markdown document
// with summary counts, per-type tables and newline cleanup guidance.
func (r *NewlineReport) WriteMarkdown(w io.Writer) error {
	var b strings.Builder

	b.WriteString("# Newline Character Analysis Report\n\n")
	b.WriteString("Analysis of `\\n` (newline) character usage in critiques and captions.\n\n")
	b.WriteString("---\n\n")

	totalCritiques, critiquesWithNewline := 0, 0
	for _, stats := range r.CritiqueOverall {
		totalCritiques += stats.Total
		critiquesWithNewline += stats.WithNewline
	}
	totalCaptions, captionsWithNewline := 0, 0
	for _, stats := range r.CaptionOverall {
		totalCaptions += stats.Total
		captionsWithNewline += stats.WithNewline
	}

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "- **Total Critiques Analyzed**: %d\n", totalCritiques)
	fmt.Fprintf(&b, "- **Critiques with Newlines**: %d (%.1f%%)\n", critiquesWithNewline, percent(critiquesWithNewline, totalCritiques))
	fmt.Fprintf(&b, "- **Total Captions Analyzed**: %d\n", totalCaptions)
	fmt.Fprintf(&b, "- **Captions with Newlines**: %d (%.1f%%)\n\n", captionsWithNewline, percent(captionsWithNewline, totalCaptions))
	b.WriteString("---\n\n")

	writeOverallTable(&b, "## Critique Statistics", "Critique Type", r.CritiqueOverall)
	writeOverallTable(&b, "## Caption Statistics", "Caption Type", r.CaptionOverall)

	writeBreakdown(&b, "## Detailed Breakdown: Critiques by Caption Type", r.CritiqueByType, r.CaptionTypes)
	writeBreakdown(&b, "## Detailed Breakdown: Captions by Caption Type", r.CaptionByType, r.CaptionTypes)

	b.WriteString("## Legend\n\n")
	b.WriteString("- ✅ **0%** - No newlines found (clean)\n")
	b.WriteString("- 🟢 **0-20%** - Low newline usage\n")
	b.WriteString("- 🟡 **20-50%** - Moderate newline usage\n")
	b.WriteString("- 🔴 **>50%** - High newline usage\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Newline Removal Strategies\n\n")
	b.WriteString("Three strategies for removing newline characters:\n\n")
	b.WriteString("1. **Simple Strip**: trim leading/trailing whitespace including newlines\n")
	b.WriteString("2. **Replace with Space**: replace each newline with a single space\n")
	b.WriteString("3. **Smart Replace** (recommended): replace newlines with spaces, collapse runs, trim\n\n")

	writeExamples(&b, "## Critique Examples", r.CritiqueOverall)
	writeExamples(&b, "## Caption Examples", r.CaptionOverall)

	_, err := io.WriteString(w, b.String())
	return err
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func writeOverallTable(b *strings.Builder, title, column string, overall map[string]*TypeStats) {
	fmt.Fprintf(b, "%s\n\n", title)
	fmt.Fprintf(b, "| %s | Total | With `\\n` | Percentage |\n", column)
	b.WriteString("|---|---:|---:|---:|\n")
	for _, name := range sortedKeys(overall) {
		stats := overall[name]
		fmt.Fprintf(b, "| %s %s | %d | %d | **%.1f%%** |\n",
			indicator(stats.Percentage), name, stats.Total, stats.WithNewline, stats.Percentage)
	}
	b.WriteString("\n---\n\n")
}

func writeBreakdown(b *strings.Builder, title string, byType map[string]map[string]*TypeStats, captionTypes []string) {
	fmt.Fprintf(b, "%s\n\n", title)
	for _, specificType := range sortedKeys(byType) {
		fmt.Fprintf(b, "### %s\n\n", specificType)
		b.WriteString("| Caption Type | Total | With `\\n` | Percentage |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, captionType := range captionTypes {
			stats, ok := byType[specificType][captionType]
			if !ok {
				fmt.Fprintf(b, "| ⚪ %s | N/A | N/A | N/A |\n", captionType)
				continue
			}
			fmt.Fprintf(b, "| %s %s | %d | %d | %.1f%% |\n",
				indicator(stats.Percentage), captionType, stats.Total, stats.WithNewline, stats.Percentage)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
}

func writeExamples(b *strings.Builder, title string, overall map[string]*TypeStats) {
	fmt.Fprintf(b, "%s\n\n", title)
	for _, name := range sortedKeys(overall) {
		examples := overall[name].Examples
		if len(examples) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", name)
		for i, example := range examples {
			fmt.Fprintf(b, "**Example %d** (video %s, %s):\n\n", i+1, example.VideoID, example.CaptionType)
			b.WriteString("Before:\n\n```\n")
			b.WriteString(example.Text)
			b.WriteString("\n```\n\nAfter (smart replace):\n\n```\n")
			b.WriteString(CleanNewlines(example.Text))
			b.WriteString("\n```\n\n")
		}
	}
}
