package analyze

import (
	"strings"

	"github.com/camerabench/captionkit/internal/export"
)

// CaptionTypeStats holds per caption type word counts and rating averages
// over approved and rejected entries.
type CaptionTypeStats struct {
	CaptionType      string  `json:"caption_type"`
	Count            int     `json:"count"`
	AvgPreWords      float64 `json:"avg_pre_words"`
	AvgFinalWords    float64 `json:"avg_final_words"`
	AvgFeedbackWords float64 `json:"avg_feedback_words"`
	AvgRating        float64 `json:"avg_rating"`
	RatedCount       int     `json:"rated_count"`
}

// CaptionStats computes per-type averages across an export. Averages over
// empty sets are zero. The rating average only covers entries that carry an
// initial rating.
func CaptionStats(videos []export.Video) []CaptionTypeStats {
	type accumulator struct {
		count         int
		preWords      int
		finalWords    int
		feedbackWords int
		ratingSum     float64
		ratedCount    int
	}

	accs := make(map[string]*accumulator)
	for _, video := range videos {
		for captionType, entry := range video.Captions {
			if !entry.Approved() || entry.CaptionData == nil {
				continue
			}
			acc, ok := accs[captionType]
			if !ok {
				acc = &accumulator{}
				accs[captionType] = acc
			}

			info := entry.CaptionData
			acc.count++
			acc.preWords += len(strings.Fields(info.PreCaption))
			acc.finalWords += len(strings.Fields(info.FinalCaption))
			acc.feedbackWords += len(strings.Fields(info.FinalFeedback.String()))
			if info.RatingScore != nil {
				acc.ratingSum += *info.RatingScore
				acc.ratedCount++
			}
		}
	}

	stats := make([]CaptionTypeStats, 0, len(accs))
	for _, captionType := range sortedKeys(accs) {
		acc := accs[captionType]
		s := CaptionTypeStats{
			CaptionType: captionType,
			Count:       acc.count,
			RatedCount:  acc.ratedCount,
		}
		if acc.count > 0 {
			s.AvgPreWords = float64(acc.preWords) / float64(acc.count)
			s.AvgFinalWords = float64(acc.finalWords) / float64(acc.count)
			s.AvgFeedbackWords = float64(acc.feedbackWords) / float64(acc.count)
		}
		if acc.ratedCount > 0 {
			s.AvgRating = acc.ratingSum / float64(acc.ratedCount)
		}
		stats = append(stats, s)
	}
	return stats
}
