package detect

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/camerabench/captionkit/internal/export"
	"github.com/camerabench/captionkit/internal/persistence"
)

// ReportInput carries everything the report writers need about a finished
// run.
type ReportInput struct {
	Run        *persistence.DetectionRun
	Detector   Detector
	Samples    []export.Sample
	Stats      *export.Stats
	Timestamp  time.Time
	MaxNoShown int

	// VideoURL resolves a video id to a playable URL for the HTML report.
	// Optional.
	VideoURL func(videoID string) string
}

// WriteJSONL writes one JSON object per classified sample.
func WriteJSONL(w io.Writer, samples []export.Sample) error {
	enc := json.NewEncoder(w)
	for i := range samples {
		if err := enc.Encode(&samples[i]); err != nil {
			return fmt.Errorf("encode sample %s: %w", samples[i].Key(), err)
		}
	}
	return nil
}

type labelSummary struct {
	count      int
	percentage float64
	avgLength  float64
	avgChanges float64
}

func summarize(samples []export.Sample) map[string]labelSummary {
	type acc struct {
		count   int
		lengths int
		changes int
	}
	accs := map[string]*acc{}
	for _, s := range samples {
		a, ok := accs[s.Label]
		if !ok {
			a = &acc{}
			accs[s.Label] = a
		}
		a.count++
		a.lengths += s.FeedbackLen
		a.changes += s.NumChanges
	}

	total := len(samples)
	out := map[string]labelSummary{}
	for label, a := range accs {
		s := labelSummary{count: a.count}
		if total > 0 {
			s.percentage = float64(a.count) / float64(total) * 100
		}
		if a.count > 0 {
			s.avgLength = float64(a.lengths) / float64(a.count)
			s.avgChanges = float64(a.changes) / float64(a.count)
		}
		out[label] = s
	}
	return out
}

// WriteMarkdown renders the run report: dataset info, the prompt used,
// per-label statistics, every Yes example in full, a bounded set of No
// examples and finally the complete sample sequence.
func (in *ReportInput) WriteMarkdown(w io.Writer) error {
	var b strings.Builder

	total := len(in.Samples)
	summary := summarize(in.Samples)
	yes, no, unexpected := summary[LabelYes], summary[LabelNo], summary[LabelUnexpected]

	fmt.Fprintf(&b, "# Detection Report: %s\n\n", in.Detector.Name)
	b.WriteString("## Dataset Information\n\n")
	fmt.Fprintf(&b, "- **Source Export File**: %s\n", in.Run.ExportPath)
	if in.Stats != nil {
		fmt.Fprintf(&b, "- **Total Feedback (Approved/Rejected only)**: %d\n", in.Stats.TotalApprovedRejected)
		if in.Stats.WithCameraPattern > 0 && in.Stats.TotalApprovedRejected > 0 {
			fmt.Fprintf(&b, "- **With Camera Pattern**: %d (%.2f%% of approved/rejected)\n",
				in.Stats.WithCameraPattern,
				float64(in.Stats.WithCameraPattern)/float64(in.Stats.TotalApprovedRejected)*100)
		}
	}
	fmt.Fprintf(&b, "- **Sampled for Analysis**: %d samples\n", total)
	fmt.Fprintf(&b, "- **Random Seed**: %d\n", in.Run.Seed)
	fmt.Fprintf(&b, "- **Timestamp**: %s\n\n", in.Timestamp.Format("20060102_1504"))

	b.WriteString("## What We're Detecting\n\n")
	fmt.Fprintf(&b, "%s.\n\n", in.Detector.Description)

	if in.Detector.UsesLLM() {
		b.WriteString("## Classification Prompt\n\n")
		b.WriteString("The following prompt was used to classify critiques:\n```\n")
		b.WriteString(in.Detector.Prompt)
		b.WriteString("\n```\n\n")
	}

	b.WriteString("## Classification Statistics\n\n")
	b.WriteString("| Label | Count | Percentage | Avg Feedback Length | Avg Word Changes |\n")
	b.WriteString("|-------|-------|------------|---------------------|------------------|\n")
	fmt.Fprintf(&b, "| Yes | %d | %.2f%% | %.0f chars | %.1f words |\n", yes.count, yes.percentage, yes.avgLength, yes.avgChanges)
	fmt.Fprintf(&b, "| No | %d | %.2f%% | %.0f chars | %.1f words |\n", no.count, no.percentage, no.avgLength, no.avgChanges)
	fmt.Fprintf(&b, "| Unexpected | %d | %.2f%% | - | - |\n", unexpected.count, unexpected.percentage)
	fmt.Fprintf(&b, "| **Total** | %d | 100.00%% | - | - |\n\n", total)

	if unexpected.count > 0 {
		fmt.Fprintf(&b, "⚠️ **Warning**: %d samples received unexpected responses from the classifier.\n\n", unexpected.count)
	}

	b.WriteString("## Sample Examples\n\n")

	yesSamples := filterByLabel(in.Samples, LabelYes)
	if len(yesSamples) > 0 {
		fmt.Fprintf(&b, "### Yes (%d shown)\n\n", len(yesSamples))
		for i, sample := range yesSamples {
			fmt.Fprintf(&b, "#### Yes Example %d\n\n", i+1)
			writeSampleMarkdown(&b, sample)
		}
	}

	maxNo := in.MaxNoShown
	if maxNo <= 0 {
		maxNo = 20
	}
	noSamples := filterByLabel(in.Samples, LabelNo)
	if len(noSamples) > maxNo {
		noSamples = export.SampleN(noSamples, maxNo, in.Run.Seed)
	}
	if len(noSamples) > 0 {
		fmt.Fprintf(&b, "### No (%d shown)\n\n", len(noSamples))
		for i, sample := range noSamples {
			fmt.Fprintf(&b, "#### No Example %d\n\n", i+1)
			writeSampleMarkdown(&b, sample)
		}
	}

	b.WriteString("## All Samples (Complete Sequence)\n\n")
	for i, sample := range in.Samples {
		fmt.Fprintf(&b, "### Sample %d/%d - [%s]\n\n", i+1, total, sample.Label)
		writeSampleMarkdown(&b, sample)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func filterByLabel(samples []export.Sample, label string) []export.Sample {
	var out []export.Sample
	for _, s := range samples {
		if s.Label == label {
			out = append(out, s)
		}
	}
	return out
}

func naIfNegative(i int) string {
	if i < 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", i)
}

func ratingString(score *float64) string {
	if score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *score)
}

func writeSampleMarkdown(b *strings.Builder, s export.Sample) {
	fmt.Fprintf(b, "**Video ID**: %s\n\n", s.VideoID)
	fmt.Fprintf(b, "**Sheet**: %s\n\n", s.Sheet)
	fmt.Fprintf(b, "**Video Index**: %s\n\n", naIfNegative(s.VideoIndex))
	fmt.Fprintf(b, "**Caption Type**: %s\n\n", s.CaptionType)
	fmt.Fprintf(b, "**Status**: %s\n\n", s.Status)
	fmt.Fprintf(b, "**User**: %s\n\n", s.User)
	fmt.Fprintf(b, "**Reviewer**: %s\n\n", s.Reviewer)
	fmt.Fprintf(b, "**Rating Score**: %s\n\n", ratingString(s.RatingScore))
	fmt.Fprintf(b, "**Feedback Length**: %d chars\n\n", s.FeedbackLen)
	fmt.Fprintf(b, "**Number of Changes**: %d words\n\n", s.NumChanges)
	fmt.Fprintf(b, "**Final Feedback**: %s\n\n", s.FinalFeedback)
	fmt.Fprintf(b, "**Pre-Caption**:\n```\n%s\n```\n\n", s.PreCaption)
	fmt.Fprintf(b, "**Final Caption**:\n```\n%s\n```\n\n", s.FinalCaption)
	fmt.Fprintf(b, "**Rationale**: %s\n\n", s.Rationale)
	fmt.Fprintf(b, "**Classification**: %s\n\n", s.Label)
	if s.Label == LabelUnexpected {
		fmt.Fprintf(b, "**Raw Response**: %s\n\n", s.RawOutput)
	}
	b.WriteString("---\n\n")
}

// WriteHTML renders a self-contained page with summary cards and one card
// per sample, embedding video players when a URL resolver is configured.
func (in *ReportInput) WriteHTML(w io.Writer) error {
	var b strings.Builder

	total := len(in.Samples)
	summary := summarize(in.Samples)

	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Detection Report: ` + html.EscapeString(in.Detector.Name) + `</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; margin: 0; background: #f5f6f8; color: #1c1e21; }
header { background: #1a73e8; color: #fff; padding: 24px 32px; }
.cards { display: flex; gap: 16px; padding: 24px 32px; flex-wrap: wrap; }
.card { background: #fff; border-radius: 8px; padding: 16px 24px; box-shadow: 0 1px 3px rgba(0,0,0,.15); min-width: 140px; }
.card .num { font-size: 28px; font-weight: 700; }
.card.yes .num { color: #d93025; }
.card.no .num { color: #188038; }
.card.unexpected .num { color: #f29900; }
.sample { background: #fff; border-radius: 8px; margin: 16px 32px; padding: 20px 24px; box-shadow: 0 1px 3px rgba(0,0,0,.12); }
.sample h3 { margin-top: 0; }
.label { display: inline-block; padding: 2px 10px; border-radius: 12px; color: #fff; font-size: 13px; }
.label.yes { background: #d93025; }
.label.no { background: #188038; }
.label.unexpected { background: #f29900; }
.field { margin: 8px 0; }
.field b { color: #5f6368; }
pre { background: #f1f3f4; padding: 12px; border-radius: 6px; white-space: pre-wrap; }
video { max-width: 480px; border-radius: 6px; margin-top: 8px; }
</style>
</head>
<body>
`)
	fmt.Fprintf(&b, "<header><h1>Detection Report: %s</h1><p>%s</p></header>\n",
		html.EscapeString(in.Detector.Name), html.EscapeString(in.Detector.Description))

	b.WriteString(`<div class="cards">` + "\n")
	fmt.Fprintf(&b, `<div class="card"><div class="num">%d</div><div>Total Samples</div></div>`+"\n", total)
	for _, label := range []string{LabelYes, LabelNo, LabelUnexpected} {
		s := summary[label]
		fmt.Fprintf(&b, `<div class="card %s"><div class="num">%d</div><div>%s (%.1f%%)</div></div>`+"\n",
			strings.ToLower(label), s.count, label, s.percentage)
	}
	b.WriteString("</div>\n")

	for i, sample := range in.Samples {
		labelClass := strings.ToLower(sample.Label)
		fmt.Fprintf(&b, `<div class="sample"><h3>Sample %d/%d <span class="label %s">%s</span></h3>`+"\n",
			i+1, total, labelClass, html.EscapeString(sample.Label))

		writeHTMLField(&b, "Video ID", sample.VideoID)
		writeHTMLField(&b, "Sheet", sample.Sheet)
		writeHTMLField(&b, "Caption Type", sample.CaptionType)
		writeHTMLField(&b, "Status", sample.Status)
		writeHTMLField(&b, "Rating Score", ratingString(sample.RatingScore))
		writeHTMLField(&b, "Final Feedback", sample.FinalFeedback)
		fmt.Fprintf(&b, `<div class="field"><b>Pre-Caption</b><pre>%s</pre></div>`+"\n", html.EscapeString(sample.PreCaption))
		fmt.Fprintf(&b, `<div class="field"><b>Final Caption</b><pre>%s</pre></div>`+"\n", html.EscapeString(sample.FinalCaption))
		writeHTMLField(&b, "Rationale", sample.Rationale)

		if in.VideoURL != nil {
			if url := in.VideoURL(sample.VideoID); url != "" {
				fmt.Fprintf(&b, `<video controls preload="none" src="%s"></video>`+"\n", html.EscapeString(url))
			}
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHTMLField(b *strings.Builder, name, value string) {
	if value == "" {
		value = "N/A"
	}
	fmt.Fprintf(b, `<div class="field"><b>%s</b>: %s</div>`+"\n", html.EscapeString(name), html.EscapeString(value))
}
