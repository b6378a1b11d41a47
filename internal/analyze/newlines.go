// Package analyze computes corpus statistics over caption exports: newline
// usage in critiques and captions, per-type word counts and ratings, and the
// language mix of reviewer feedback.
package analyze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/camerabench/captionkit/internal/export"
)

// FinalFeedbackType labels the ground-truth feedback column in reports.
const FinalFeedbackType = "final_feedback"

// Example is a short preview of a text that contained a newline.
type Example struct {
	VideoID     string `json:"video_id"`
	CaptionType string `json:"caption_type"`
	Text        string `json:"text"`
}

// TypeStats counts newline occurrences for one critique or caption type.
type TypeStats struct {
	Total       int       `json:"total"`
	WithNewline int       `json:"with_newline"`
	Percentage  float64   `json:"percentage"`
	Examples    []Example `json:"examples,omitempty"`
}

// NewlineReport aggregates newline usage overall and per caption type.
//
// Critique keys: final_feedback plus the generated critique types.
// Caption keys: final_caption, revised_<critique type> and worst_caption.
type NewlineReport struct {
	CritiqueOverall map[string]*TypeStats
	CritiqueByType  map[string]map[string]*TypeStats
	CaptionOverall  map[string]*TypeStats
	CaptionByType   map[string]map[string]*TypeStats
	CaptionTypes    []string
}

const (
	maxExamples    = 3
	previewLength  = 200
	worstCaptionID = "worst_caption"
)

// AnalyzeNewlines scans every approved or rejected caption entry and counts
// how often each text field carries a newline. Critiques are only counted
// when generation succeeded.
func AnalyzeNewlines(videos []export.Video) *NewlineReport {
	captionTypes := export.DetectCaptionTypes(videos)

	report := &NewlineReport{
		CritiqueOverall: make(map[string]*TypeStats),
		CritiqueByType:  make(map[string]map[string]*TypeStats),
		CaptionOverall:  make(map[string]*TypeStats),
		CaptionByType:   make(map[string]map[string]*TypeStats),
		CaptionTypes:    captionTypes,
	}

	for _, name := range append([]string{FinalFeedbackType}, export.CritiqueTypes...) {
		report.CritiqueOverall[name] = &TypeStats{}
	}
	report.CaptionOverall["final_caption"] = &TypeStats{}
	for _, critiqueType := range export.CritiqueTypes {
		report.CaptionOverall["revised_"+critiqueType] = &TypeStats{}
	}
	report.CaptionOverall[worstCaptionID] = &TypeStats{}

	for _, video := range videos {
		for _, captionType := range captionTypes {
			entry, ok := video.Captions[captionType]
			if !ok || !entry.Approved() || entry.CaptionData == nil {
				continue
			}
			info := entry.CaptionData

			record(report.CritiqueOverall[FinalFeedbackType],
				byType(report.CritiqueByType, FinalFeedbackType, captionType),
				info.FinalFeedback.String(), video.VideoID, captionType)

			record(report.CaptionOverall["final_caption"],
				byType(report.CaptionByType, "final_caption", captionType),
				info.FinalCaption, video.VideoID, captionType)

			for _, critiqueType := range export.CritiqueTypes {
				critique, ok := entry.Critiques[critiqueType]
				if !ok || !critique.Succeeded() {
					continue
				}

				record(report.CritiqueOverall[critiqueType],
					byType(report.CritiqueByType, critiqueType, captionType),
					critique.Generated, video.VideoID, captionType)

				revisedKey := "revised_" + critiqueType
				record(report.CaptionOverall[revisedKey],
					byType(report.CaptionByType, revisedKey, captionType),
					critique.RevisedCaption, video.VideoID, captionType)
			}

			if entry.WorstCaption != nil && entry.WorstCaption.Succeeded() {
				record(report.CaptionOverall[worstCaptionID],
					byType(report.CaptionByType, worstCaptionID, captionType),
					entry.WorstCaption.BadCaption, video.VideoID, captionType)
			}
		}
	}

	finalize(report.CritiqueOverall)
	finalize(report.CaptionOverall)
	for _, perType := range report.CritiqueByType {
		finalize(perType)
	}
	for _, perType := range report.CaptionByType {
		finalize(perType)
	}

	return report
}

func byType(m map[string]map[string]*TypeStats, specific, captionType string) *TypeStats {
	perType, ok := m[specific]
	if !ok {
		perType = make(map[string]*TypeStats)
		m[specific] = perType
	}
	stats, ok := perType[captionType]
	if !ok {
		stats = &TypeStats{}
		perType[captionType] = stats
	}
	return stats
}

func record(overall, perCaption *TypeStats, text, videoID, captionType string) {
	overall.Total++
	perCaption.Total++
	if !strings.Contains(text, "\n") {
		return
	}
	overall.WithNewline++
	perCaption.WithNewline++
	if len(overall.Examples) < maxExamples {
		overall.Examples = append(overall.Examples, Example{
			VideoID:     videoID,
			CaptionType: captionType,
			Text:        preview(text),
		})
	}
}

func finalize(stats map[string]*TypeStats) {
	for _, s := range stats {
		if s.Total > 0 {
			s.Percentage = float64(s.WithNewline) / float64(s.Total) * 100
		}
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}

var spaceRuns = regexp.MustCompile(` +`)

// CleanNewlines removes newlines from a text by replacing them with spaces,
// collapsing runs of spaces and trimming the result.
func CleanNewlines(text string) string {
	cleaned := strings.ReplaceAll(text, "\n", " ")
	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
