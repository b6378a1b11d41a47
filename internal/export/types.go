// Package export loads and filters consolidated caption export files.
//
// An export file ("all_videos_with_captions_and_critiques_*.json") holds one
// entry per video, each carrying per-type captions, reviewer feedback and the
// generated negative critiques. Files come in two shapes, a JSON array of
// video objects or an object keyed by video id, and both are accepted.
package export

import (
	"encoding/json"
	"sort"
	"strings"
)

// CritiqueTypes are the generated negative critique keys found on a caption
// entry. worst_caption_generation is tracked separately.
var CritiqueTypes = []string{
	"insertion_error_critique",
	"replacement_error_critique",
	"deletion_error_critique",
	"nonconstructive_critique",
	"video_model_critique",
	"blind_model_critique",
}

// DefaultCaptionTypes is the fallback set when an export holds no captions
// to detect types from.
var DefaultCaptionTypes = []string{
	"subject",
	"scene",
	"subject_motion",
	"spatial",
	"camera",
}

// Video is one entry of a consolidated export.
type Video struct {
	VideoID  string                  `json:"video_id"`
	VideoURL string                  `json:"video_url"`
	Captions map[string]CaptionEntry `json:"captions"`
}

// CaptionEntry is the per-caption-type payload of a video. Critiques holds
// the generated negative critiques keyed by critique type.
type CaptionEntry struct {
	Status       string
	CaptionData  *CaptionData
	Critiques    map[string]Critique
	WorstCaption *Critique
}

// UnmarshalJSON decodes the entry from its wire shape, where critique
// payloads sit as sibling keys of status and caption_data.
func (e *CaptionEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["status"]; ok {
		if err := json.Unmarshal(v, &e.Status); err != nil {
			return err
		}
	}
	if v, ok := raw["caption_data"]; ok {
		e.CaptionData = &CaptionData{}
		if err := json.Unmarshal(v, e.CaptionData); err != nil {
			return err
		}
	}
	for _, critiqueType := range CritiqueTypes {
		v, ok := raw[critiqueType]
		if !ok {
			continue
		}
		var critique Critique
		if err := json.Unmarshal(v, &critique); err != nil {
			return err
		}
		if e.Critiques == nil {
			e.Critiques = make(map[string]Critique, len(CritiqueTypes))
		}
		e.Critiques[critiqueType] = critique
	}
	if v, ok := raw["worst_caption_generation"]; ok {
		e.WorstCaption = &Critique{}
		if err := json.Unmarshal(v, e.WorstCaption); err != nil {
			return err
		}
	}
	return nil
}

// Approved reports whether the entry passed review in either direction.
func (e *CaptionEntry) Approved() bool {
	return e.Status == "approved" || e.Status == "rejected"
}

// CaptionData holds the reviewed caption and its feedback trail.
type CaptionData struct {
	PreCaption       string     `json:"pre_caption"`
	FinalCaption     string     `json:"final_caption"`
	GPTCaption       string     `json:"gpt_caption"`
	FinalFeedback    FlexString `json:"final_feedback"`
	InitialFeedback  FlexString `json:"initial_feedback"`
	FeedbackIsNeeded *bool      `json:"feedback_is_needed"`
	User             string     `json:"user"`
	Reviewer         string     `json:"reviewer"`
	Timestamp        string     `json:"timestamp"`
	RatingScore      *float64   `json:"initial_caption_rating_score"`
}

// NeedsFeedback reports whether the pre-caption required corrections.
// Missing field defaults to true.
func (d *CaptionData) NeedsFeedback() bool {
	return d.FeedbackIsNeeded == nil || *d.FeedbackIsNeeded
}

// Critique is one generated critique attempt. BadCaption is only set on
// worst_caption_generation entries.
type Critique struct {
	Status         string `json:"status"`
	Generated      string `json:"generated_critique"`
	RevisedCaption string `json:"revised_caption_by_generated_critique"`
	BadCaption     string `json:"bad_caption"`
}

// Succeeded reports whether the critique generation completed.
func (c *Critique) Succeeded() bool {
	return c.Status == "success"
}

// FlexString tolerates null and non-string JSON values, coercing them to
// their raw text. Some exports carry numeric or null feedback fields.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*s = ""
		return nil
	}
	*s = FlexString(text)
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// DetectCaptionTypes returns the sorted caption types present in the export,
// falling back to DefaultCaptionTypes when none are found.
func DetectCaptionTypes(videos []Video) []string {
	seen := make(map[string]bool)
	for _, video := range videos {
		for captionType := range video.Captions {
			seen[captionType] = true
		}
	}
	if len(seen) == 0 {
		return append([]string(nil), DefaultCaptionTypes...)
	}
	types := make([]string, 0, len(seen))
	for captionType := range seen {
		types = append(types, captionType)
	}
	sort.Strings(types)
	return types
}
