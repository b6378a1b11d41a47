// Package detect runs edit-pattern detectors over exported caption feedback.
// LLM-backed detectors classify each sample as Yes, No or Unexpected;
// rule detectors decide locally without a model call.
package detect

import (
	"context"
	"fmt"
	"strings"
)

// Labels a detector can assign. Unexpected marks responses that could not be
// parsed; runs retry those on resume.
const (
	LabelYes        = "Yes"
	LabelNo         = "No"
	LabelUnexpected = "Unexpected"
)

// Result is one classification outcome.
type Result struct {
	Label     string
	Rationale string
	Raw       string
}

// TextGenerator is the LLM surface a classifier needs.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier formats a prompt with a sample's feedback and captions, calls
// the LLM and parses the response.
type Classifier struct {
	client TextGenerator
	prompt string
}

func NewClassifier(client TextGenerator, prompt string) *Classifier {
	return &Classifier{client: client, prompt: prompt}
}

// Classify runs the detection prompt for one sample. LLM failures are
// reported as Unexpected rather than errors so a run can continue.
func (c *Classifier) Classify(ctx context.Context, finalFeedback, preCaption, finalCaption string) Result {
	prompt := FormatPrompt(c.prompt, finalFeedback, preCaption, finalCaption)

	response, err := c.client.Generate(ctx, prompt)
	if err != nil {
		return Result{
			Label:     LabelUnexpected,
			Rationale: fmt.Sprintf("LLM Error: %v", err),
			Raw:       err.Error(),
		}
	}

	return ParseClassification(response)
}

const (
	rationaleMarker      = "Rationale:"
	classificationMarker = "Classification:"
)

// ParseClassification extracts the label and rationale from a model
// response. The expected shape is a "Rationale:" block followed by a
// "Classification:" line. Without both markers it falls back to scanning for
// a bare yes/no; anything else becomes Unexpected with the raw response
// preserved.
func ParseClassification(response string) Result {
	raw := strings.TrimSpace(response)

	rationale := ""
	classification := ""

	rationaleIdx := strings.Index(raw, rationaleMarker)
	classificationIdx := strings.Index(raw, classificationMarker)

	if rationaleIdx != -1 && classificationIdx != -1 {
		rationale = strings.TrimSpace(raw[rationaleIdx+len(rationaleMarker) : classificationIdx])

		classificationText := strings.TrimSpace(raw[classificationIdx+len(classificationMarker):])
		classification, _, _ = strings.Cut(classificationText, "\n")
		classification = strings.ReplaceAll(classification, ".", "")
		classification = strings.ReplaceAll(classification, ",", "")
		classification = strings.TrimSpace(classification)
	} else {
		lower := strings.ToLower(raw)
		switch {
		case strings.Contains(lower, "classification: yes") || lower == "yes":
			classification = LabelYes
			rationale = raw
		case strings.Contains(lower, "classification: no") || lower == "no":
			classification = LabelNo
			rationale = raw
		default:
			for _, line := range strings.Split(raw, "\n") {
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "yes":
					classification = LabelYes
				case "no":
					classification = LabelNo
				default:
					continue
				}
				rationale = raw
				break
			}
		}
	}

	if classification == LabelYes || classification == LabelNo {
		return Result{Label: classification, Rationale: rationale, Raw: raw}
	}
	return Result{
		Label:     LabelUnexpected,
		Rationale: fmt.Sprintf("Could not parse: %s", preview(raw, 200)),
		Raw:       raw,
	}
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
