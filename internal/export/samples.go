package export

import (
	"math/rand"
	"strings"

	"github.com/camerabench/captionkit/pkg/log"
)

// Sample is one reviewed caption flattened for classification and reporting.
// VideoIndex is -1 when the video is not present in the batch mapping.
type Sample struct {
	VideoID       string   `json:"video_id"`
	Sheet         string   `json:"sheet"`
	VideoIndex    int      `json:"video_index"`
	CaptionType   string   `json:"caption_type"`
	Status        string   `json:"status"`
	FinalFeedback string   `json:"final_feedback"`
	PreCaption    string   `json:"pre_caption"`
	FinalCaption  string   `json:"final_caption"`
	GPTCaption    string   `json:"gpt_caption,omitempty"`
	User          string   `json:"user"`
	Reviewer      string   `json:"reviewer"`
	Timestamp     string   `json:"timestamp"`
	FeedbackLen   int      `json:"feedback_length"`
	RatingScore   *float64 `json:"initial_caption_rating_score"`
	NumChanges    int      `json:"num_changes"`

	// Classification results, filled in by a detection run.
	Label     string `json:"classification,omitempty"`
	Rationale string `json:"rationale,omitempty"`
	RawOutput string `json:"raw_output,omitempty"`
}

// Key identifies a sample within an export for checkpointing.
func (s *Sample) Key() string {
	return s.VideoID + "|" + s.CaptionType
}

// Stats summarizes an export's reviewed feedback.
type Stats struct {
	TotalApprovedRejected int
	Score4Count           int
	WithCameraPattern     int
	AllSamples            []Sample
	Score4Samples         []Sample
}

// ExtractStatistics flattens every reviewed caption with actionable feedback
// into samples. Entries are skipped when the status is not approved or
// rejected, when the pre-caption needed no feedback, or when the feedback is
// empty after trimming. The score-4 subset tracks pre-captions the initial
// rating considered near-perfect.
func ExtractStatistics(videos []Video, mapping BatchMapping) *Stats {
	stats := &Stats{}

	for _, video := range videos {
		for captionType, entry := range video.Captions {
			if entry.CaptionData == nil {
				continue
			}
			if !entry.Approved() {
				continue
			}

			info := entry.CaptionData
			if !info.NeedsFeedback() {
				continue
			}

			feedback := strings.TrimSpace(info.FinalFeedback.String())
			if feedback == "" {
				continue
			}

			sample := Sample{
				VideoID:       video.VideoID,
				Sheet:         "N/A",
				VideoIndex:    -1,
				CaptionType:   captionType,
				Status:        entry.Status,
				FinalFeedback: feedback,
				PreCaption:    info.PreCaption,
				FinalCaption:  info.FinalCaption,
				GPTCaption:    info.GPTCaption,
				User:          info.User,
				Reviewer:      info.Reviewer,
				Timestamp:     info.Timestamp,
				FeedbackLen:   len(feedback),
				RatingScore:   info.RatingScore,
			}
			if batch, ok := mapping.Lookup(video.VideoID); ok {
				sample.Sheet = batch.Sheet
				sample.VideoIndex = batch.VideoIndex
			}

			stats.AllSamples = append(stats.AllSamples, sample)
			if info.RatingScore != nil && *info.RatingScore == 4 {
				stats.Score4Samples = append(stats.Score4Samples, sample)
			}
		}
	}

	stats.TotalApprovedRejected = len(stats.AllSamples)
	stats.Score4Count = len(stats.Score4Samples)
	return stats
}

// ExtractCameraSamples filters the reviewed samples down to those whose
// pre-caption mentions a camera angle, annotates each with its word-level
// change count, and draws a seeded sample. sampleCount of -1 keeps the full
// set. The same seed over the same export yields the same selection.
func ExtractCameraSamples(videos []Video, sampleCount int, seed int64, mapping BatchMapping) ([]Sample, int, *Stats) {
	stats := ExtractStatistics(videos, mapping)

	var cameraSamples []Sample
	for _, sample := range stats.AllSamples {
		if !HasCameraPattern(sample.PreCaption) {
			continue
		}
		sample.NumChanges = CountWordChanges(sample.PreCaption, sample.FinalCaption)
		cameraSamples = append(cameraSamples, sample)
	}

	total := len(cameraSamples)
	stats.WithCameraPattern = total

	if sampleCount == -1 {
		log.Info("Using full dataset with camera pattern: %d samples", total)
		return cameraSamples, total, stats
	}
	if total < sampleCount {
		log.Warn("Only %d samples with camera pattern available, requested %d", total, sampleCount)
		return cameraSamples, total, stats
	}

	return SampleN(cameraSamples, sampleCount, seed), total, stats
}

// SampleN draws n samples without replacement using a seeded shuffle.
func SampleN(samples []Sample, n int, seed int64) []Sample {
	shuffled := append([]Sample(nil), samples...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
