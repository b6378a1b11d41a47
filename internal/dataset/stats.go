package dataset

import (
	"math"

	"github.com/camerabench/captionkit/internal/annotation"
)

// Stats summarizes annotation progress and video metadata for one dataset.
// Nil averages mean no data contributed, never NaN.
type Stats struct {
	Total       int                 `json:"total"`
	Completed   int                 `json:"completed"`
	Incomplete  int                 `json:"incomplete"`
	Pending     int                 `json:"pending"`
	AvgSegments *float64            `json:"avg_segments"`
	AvgScores   map[string]*float64 `json:"avg_scores"`
	VideoStats  VideoStats          `json:"video_stats"`
}

// VideoStats holds metadata averages over all samples and the completed
// subset.
type VideoStats struct {
	All       VideoBucket `json:"all"`
	Completed VideoBucket `json:"completed"`
}

type VideoBucket struct {
	AvgDuration *float64 `json:"avg_duration"`
	AvgFPS      *float64 `json:"avg_fps"`
	AvgWords    *float64 `json:"avg_words"`
	SampleCount int      `json:"sample_count"`
}

// EmptyStats is the response for a dataset with no annotations yet; video
// buckets still reflect the sample metadata.
func EmptyStats(samples []Sample) *Stats {
	return ComputeStats(samples, nil)
}

// ComputeStats aggregates annotation scores, segment counts and video
// metadata. Pending is left at zero; the client derives it from the dataset
// size.
func ComputeStats(samples []Sample, annotations map[int]*annotation.Annotation) *Stats {
	totalSegments := 0
	segmentAnnotations := 0
	scores := map[string][]float64{}
	for _, field := range annotation.RatingFields {
		scores[field] = nil
	}

	completed := 0
	incomplete := 0
	completedIndices := map[int]bool{}

	for index, a := range annotations {
		if a == nil {
			continue
		}
		if len(a.Segments) > 0 {
			totalSegments += len(a.Segments)
			segmentAnnotations++
		}

		for field, value := range map[string]*float64{
			"overall": a.Overall, "camera": a.Camera, "subject": a.Subject,
			"motion": a.Motion, "scene": a.Scene, "spatial": a.Spatial,
		} {
			if value != nil {
				scores[field] = append(scores[field], *value)
			}
		}

		if a.IsComplete() {
			completed++
			completedIndices[index] = true
		} else {
			incomplete++
		}
	}

	stats := &Stats{
		Total:      len(annotations),
		Completed:  completed,
		Incomplete: incomplete,
		AvgScores:  make(map[string]*float64, len(scores)),
	}
	if segmentAnnotations > 0 {
		stats.AvgSegments = round2(float64(totalSegments) / float64(segmentAnnotations))
	}
	for field, values := range scores {
		stats.AvgScores[field] = average(values)
	}
	stats.VideoStats = computeVideoStats(samples, completedIndices)
	return stats
}

func computeVideoStats(samples []Sample, completedIndices map[int]bool) VideoStats {
	var allDurations, allFPS, allWords []float64
	var completedDurations, completedFPS, completedWords []float64

	for index, sample := range samples {
		duration, hasDuration := sample.Duration()
		fps, hasFPS := sample.FPS()
		words := sample.WordCount()

		if hasDuration {
			allDurations = append(allDurations, duration)
		}
		if hasFPS {
			allFPS = append(allFPS, fps)
		}
		if words > 0 {
			allWords = append(allWords, float64(words))
		}

		if !completedIndices[index] {
			continue
		}
		if hasDuration {
			completedDurations = append(completedDurations, duration)
		}
		if hasFPS {
			completedFPS = append(completedFPS, fps)
		}
		if words > 0 {
			completedWords = append(completedWords, float64(words))
		}
	}

	return VideoStats{
		All: VideoBucket{
			AvgDuration: average(allDurations),
			AvgFPS:      average(allFPS),
			AvgWords:    average(allWords),
			SampleCount: len(samples),
		},
		Completed: VideoBucket{
			AvgDuration: average(completedDurations),
			AvgFPS:      average(completedFPS),
			AvgWords:    average(completedWords),
			SampleCount: len(completedIndices),
		},
	}
}

func average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

func round2(v float64) *float64 {
	rounded := math.Round(v*100) / 100
	return &rounded
}
