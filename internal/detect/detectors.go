package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/camerabench/captionkit/internal/export"
)

// Detector describes one edit-pattern detection. Prompt-backed detectors
// carry a template; rule detectors classify locally via Rule. Prefilter, if
// set, narrows the sample population before sampling.
type Detector struct {
	Name        string
	Description string
	Prompt      string
	Prefilter   func(export.Sample) bool
	Rule        func(export.Sample) Result
}

// UsesLLM reports whether this detector needs a model client.
func (d *Detector) UsesLLM() bool {
	return d.Prompt != ""
}

// Classify applies a rule detector to a sample. Prompt detectors go through
// Classifier instead.
func (d *Detector) Classify(sample export.Sample) Result {
	return d.Rule(sample)
}

// DirectEditUser is the default annotator checked by the direct-edit
// detector. Override per run with WithTargetUser.
const DirectEditUser = "jian.zhang"

var detectors = map[string]Detector{
	"camera-nitpick": {
		Name:        "camera-nitpick",
		Description: "feedback swaps or rewords camera angle/level terminology without changing the described position",
		Prompt:      CameraNitpickPrompt,
		Prefilter: func(s export.Sample) bool {
			return export.HasCameraPattern(s.PreCaption)
		},
	},
	"global-edit": {
		Name:        "global-edit",
		Description: "feedback applies one correction in two or more separate places of the pre-caption",
		Prompt:      GlobalEditPrompt,
	},
	"mostly-static": {
		Name:        "mostly-static",
		Description: "critique added 'mostly static' to a caption that did not have it",
		Prefilter: func(s export.Sample) bool {
			return s.RatingScore == nil || *s.RatingScore != 5
		},
		Rule: classifyMostlyStatic,
	},
	"direct-edit": {
		Name:        "direct-edit",
		Description: "annotator replaced the generated caption instead of using the feedback workflow",
		Rule:        classifyDirectEdit(DirectEditUser),
	},
}

// Lookup returns the named detector.
func Lookup(name string) (Detector, error) {
	detector, ok := detectors[name]
	if !ok {
		return Detector{}, fmt.Errorf("unknown detector %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return detector, nil
}

// Names lists the registered detectors in sorted order.
func Names() []string {
	names := make([]string, 0, len(detectors))
	for name := range detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithTargetUser returns a copy of the direct-edit detector bound to a
// different annotator.
func (d Detector) WithTargetUser(user string) Detector {
	if d.Name != "direct-edit" || user == "" {
		return d
	}
	d.Rule = classifyDirectEdit(user)
	return d
}

func containsMostlyStatic(text string) bool {
	return strings.Contains(strings.ToLower(text), "mostly static")
}

// classifyMostlyStatic flags critiques that introduced "mostly static": the
// final caption and feedback mention it while the pre-caption does not.
func classifyMostlyStatic(sample export.Sample) Result {
	finalHas := containsMostlyStatic(sample.FinalCaption)
	feedbackHas := containsMostlyStatic(sample.FinalFeedback)
	preHas := containsMostlyStatic(sample.PreCaption)

	if finalHas && feedbackHas && !preHas {
		return Result{
			Label:     LabelYes,
			Rationale: fmt.Sprintf("Critique added 'mostly static'. Feedback context: %q", staticContext(sample.FinalFeedback)),
		}
	}

	var reasons []string
	if !finalHas {
		reasons = append(reasons, "final caption missing 'mostly static'")
	}
	if !feedbackHas {
		reasons = append(reasons, "feedback missing 'mostly static'")
	}
	if preHas {
		reasons = append(reasons, "pre-caption already has 'mostly static'")
	}
	return Result{
		Label:     LabelNo,
		Rationale: fmt.Sprintf("Not a match: %s", strings.Join(reasons, "; ")),
	}
}

// staticContext excerpts the feedback around the first "mostly static"
// mention, 30 runes before and 50 after.
func staticContext(feedback string) string {
	lower := strings.ToLower(feedback)
	idx := strings.Index(lower, "mostly static")
	if idx < 0 {
		return ""
	}

	runes := []rune(feedback)
	runeIdx := len([]rune(feedback[:idx]))

	start := runeIdx - 30
	if start < 0 {
		start = 0
	}
	end := runeIdx + 50
	if end > len(runes) {
		end = len(runes)
	}

	context := string(runes[start:end])
	if start > 0 {
		context = "..." + context
	}
	if end < len(runes) {
		context = context + "..."
	}
	return context
}

// classifyDirectEdit flags captions where the target annotator's final
// caption differs from the generated caption they were shown.
func classifyDirectEdit(targetUser string) func(export.Sample) Result {
	return func(sample export.Sample) Result {
		if sample.User != targetUser {
			return Result{Label: LabelNo, Rationale: fmt.Sprintf("annotator is %q, not %q", sample.User, targetUser)}
		}

		gpt := strings.TrimSpace(sample.GPTCaption)
		final := strings.TrimSpace(sample.FinalCaption)

		if sample.RatingScore != nil && *sample.RatingScore == 5 {
			return Result{Label: LabelNo, Rationale: "perfect pre-caption, no generated caption to edit"}
		}
		if gpt == "" {
			return Result{Label: LabelNo, Rationale: "no generated caption recorded"}
		}
		if final != gpt {
			return Result{
				Label:     LabelYes,
				Rationale: fmt.Sprintf("final caption differs from generated caption (%d word changes)", export.CountWordChanges(gpt, final)),
			}
		}
		return Result{Label: LabelNo, Rationale: "generated caption accepted as-is"}
	}
}
