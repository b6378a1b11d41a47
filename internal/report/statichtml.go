// Package report renders shareable static pages: an annotation progress site
// from a consolidated export, and LaTeX table sources for the taxonomy paper.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/camerabench/captionkit/internal/export"
	"github.com/camerabench/captionkit/pkg/log"
)

// CrowdCaption holds crowd-sourced captions for one video, keyed by the
// video filename in the sidecar file.
type CrowdCaption struct {
	ContentID         string `json:"content_id,omitempty"`
	SubjectBackground string `json:"subject_background,omitempty"`
	SubjectMotion     string `json:"subject_motion,omitempty"`
	Camera            string `json:"camera,omitempty"`
}

// LoadCrowdCaptions reads a filename-to-caption JSON sidecar.
func LoadCrowdCaptions(path string) (map[string]CrowdCaption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crowd captions %s: %w", path, err)
	}
	var captions map[string]CrowdCaption
	if err := json.Unmarshal(data, &captions); err != nil {
		return nil, fmt.Errorf("parse crowd captions %s: %w", path, err)
	}
	return captions, nil
}

// SiteOptions controls the static annotation site.
type SiteOptions struct {
	// Caption types a video must have reviewed to count as completed.
	// Defaults to export.DefaultCaptionTypes.
	RequiredTypes []string
	// When non-empty, only videos whose URL basename is in the set appear.
	IncludeVideos map[string]bool
	// Crowd captions keyed by video filename, shown on completed videos.
	CrowdCaptions map[string]CrowdCaption
}

func (o *SiteOptions) requiredTypes() []string {
	if len(o.RequiredTypes) > 0 {
		return o.RequiredTypes
	}
	return export.DefaultCaptionTypes
}

// VideoFilename extracts the basename of a video URL.
func VideoFilename(videoURL string) string {
	if videoURL == "" {
		return ""
	}
	parts := strings.Split(videoURL, "/")
	return parts[len(parts)-1]
}

// IsVideoCompleted reports whether every required caption type has passed
// review (any status beyond not_completed counts).
func IsVideoCompleted(captions map[string]export.CaptionEntry, requiredTypes []string) bool {
	for _, captionType := range requiredTypes {
		entry, ok := captions[captionType]
		if !ok || entry.Status == "" || entry.Status == "not_completed" {
			return false
		}
	}
	return true
}

func hasAnyCompleted(captions map[string]export.CaptionEntry, requiredTypes []string) bool {
	for _, captionType := range requiredTypes {
		entry, ok := captions[captionType]
		if ok && entry.Status != "" && entry.Status != "not_completed" {
			return true
		}
	}
	return false
}

// StatusSummary maps each required caption type to its review status.
// Types missing from the export report "not_started".
func StatusSummary(captions map[string]export.CaptionEntry, requiredTypes []string) map[string]string {
	summary := make(map[string]string, len(requiredTypes))
	for _, captionType := range requiredTypes {
		entry, ok := captions[captionType]
		switch {
		case !ok:
			summary[captionType] = "not_started"
		case entry.Status == "":
			summary[captionType] = "not_completed"
		default:
			summary[captionType] = entry.Status
		}
	}
	return summary
}

var statusDisplay = map[string]string{
	"approved":               "✅ Approved",
	"rejected":               "🔄 Rejected",
	"completed_not_reviewed": "⏳ Pending Review",
	"not_completed":          "⬜ Not Completed",
	"not_started":            "⬜ Not Started",
}

func displayType(captionType string) string {
	words := strings.Split(captionType, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// WriteSite renders the complete annotation site to w.
func WriteSite(w io.Writer, videos []export.Video, opts SiteOptions) error {
	requiredTypes := opts.requiredTypes()

	filtered := videos
	if len(opts.IncludeVideos) > 0 {
		filtered = filtered[:0:0]
		found := map[string]bool{}
		for _, video := range videos {
			name := VideoFilename(video.VideoURL)
			if opts.IncludeVideos[name] {
				filtered = append(filtered, video)
				found[name] = true
			}
		}
		for name := range opts.IncludeVideos {
			if !found[name] {
				log.Warn("Video from the included list not found in export: %s", name)
			}
		}
	}

	var completed []export.Video
	type incompleteVideo struct {
		video   export.Video
		summary map[string]string
	}
	var partial, notStarted []incompleteVideo
	for _, video := range filtered {
		if IsVideoCompleted(video.Captions, requiredTypes) {
			completed = append(completed, video)
			continue
		}
		entry := incompleteVideo{video, StatusSummary(video.Captions, requiredTypes)}
		if hasAnyCompleted(video.Captions, requiredTypes) {
			partial = append(partial, entry)
		} else {
			notStarted = append(notStarted, entry)
		}
	}
	incomplete := append(partial, notStarted...)

	b := &strings.Builder{}
	b.WriteString(siteHeader)

	// Summary cards
	fmt.Fprintf(b, "<div class=\"summary\">\n<h2>📊 Summary</h2>\n<div class=\"summary-stats\">\n")
	fmt.Fprintf(b, "<div class=\"stat-item\"><div class=\"stat-number\">%d</div><div class=\"stat-label\">Total Videos</div></div>\n", len(filtered))
	fmt.Fprintf(b, "<div class=\"stat-item\"><div class=\"stat-number\">%d</div><div class=\"stat-label\">Completed</div></div>\n", len(completed))
	fmt.Fprintf(b, "<div class=\"stat-item\"><div class=\"stat-number\">%d</div><div class=\"stat-label\">In Progress</div></div>\n", len(incomplete))
	if len(opts.CrowdCaptions) > 0 {
		overlap := 0
		for _, video := range completed {
			if _, ok := opts.CrowdCaptions[VideoFilename(video.VideoURL)]; ok {
				overlap++
			}
		}
		fmt.Fprintf(b, "<div class=\"stat-item\"><div class=\"stat-number\">%d</div><div class=\"stat-label\">With Crowd Captions</div></div>\n", overlap)
	}
	b.WriteString("</div>\n</div>\n")

	b.WriteString("<div class=\"navigation\"><strong>Quick Navigation:</strong> " +
		"<a href=\"#completed\">Completed Videos</a> | <a href=\"#incomplete\">In Progress Videos</a></div>\n")

	if len(completed) > 0 {
		b.WriteString("<div id=\"completed\" class=\"section-header\">✅ Completed Videos</div>\n")
		for _, video := range completed {
			writeCompletedVideo(b, video, requiredTypes, opts.CrowdCaptions)
		}
	}
	if len(incomplete) > 0 {
		b.WriteString("<div id=\"incomplete\" class=\"section-header\">⏳ Videos In Progress</div>\n")
		for _, entry := range incomplete {
			writeIncompleteVideo(b, entry.video, requiredTypes, entry.summary)
		}
	}

	b.WriteString("</div>\n</body>\n</html>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCompletedVideo(b *strings.Builder, video export.Video, requiredTypes []string, crowd map[string]CrowdCaption) {
	videoID := html.EscapeString(video.VideoID)
	videoURL := html.EscapeString(video.VideoURL)

	fmt.Fprintf(b, "<div class=\"video-section\" id=\"%s\">\n<h2 class=\"video-title\">%s</h2>\n", videoID, videoID)
	fmt.Fprintf(b, "<div class=\"video-container\">\n<video controls width=\"100%%\">\n<source src=\"%s\" type=\"video/mp4\">\n</video>\n", videoURL)
	fmt.Fprintf(b, "<div class=\"download-link\"><a href=\"%s\" download>📥 Download Video</a></div>\n</div>\n", videoURL)

	if caption, ok := crowd[VideoFilename(video.VideoURL)]; ok {
		b.WriteString("<div class=\"crowd-captions\">\n<h3>👥 Crowd Captions</h3>\n<div class=\"crowd-caption-grid\">\n")
		writeCrowdField(b, "Subject & Background", caption.SubjectBackground)
		writeCrowdField(b, "Subject Motion", caption.SubjectMotion)
		writeCrowdField(b, "Camera", caption.Camera)
		b.WriteString("</div>\n</div>\n")
	}

	b.WriteString("<div class=\"caption-grid\">\n")
	for _, captionType := range requiredTypes {
		entry, ok := video.Captions[captionType]
		if !ok || entry.Status == "" || entry.Status == "not_completed" {
			continue
		}

		fmt.Fprintf(b, "<div class=\"caption-card %s\">\n<h3>%s</h3>\n", entry.Status, html.EscapeString(displayType(captionType)))
		emoji := "❓"
		switch entry.Status {
		case "approved":
			emoji = "✅"
		case "rejected":
			emoji = "🔄"
		}
		fmt.Fprintf(b, "<div class=\"status-badge %s\">%s %s</div>\n", entry.Status, emoji, displayType(entry.Status))

		data := entry.CaptionData
		if data == nil {
			b.WriteString("</div>\n")
			continue
		}
		if data.PreCaption != "" {
			score := "N/A"
			if data.RatingScore != nil {
				score = fmt.Sprintf("%g", *data.RatingScore)
			}
			writeCaptionField(b, fmt.Sprintf("Pre-Caption (Score: %s/5)", score), data.PreCaption, "")
		}
		if data.InitialFeedback.String() != "" {
			writeCaptionField(b, "Initial Human Feedback", data.InitialFeedback.String(), "")
		}
		if data.FinalFeedback.String() != "" {
			writeCaptionField(b, "Final Feedback", data.FinalFeedback.String(), "")
		}
		if data.FinalCaption != "" {
			writeCaptionField(b, "Final Caption", data.FinalCaption, "final-caption")
		}

		annotator := data.User
		if annotator == "" {
			annotator = "Unknown"
		}
		b.WriteString("<div class=\"user-info\">\n")
		fmt.Fprintf(b, "<span class=\"annotator\">👤 Annotator: %s</span>\n", html.EscapeString(annotator))
		if data.Reviewer != "" {
			fmt.Fprintf(b, "<span class=\"reviewer\">🔍 Reviewer: %s</span>\n", html.EscapeString(data.Reviewer))
		}
		b.WriteString("</div>\n</div>\n")
	}
	b.WriteString("</div>\n</div>\n")
}

func writeCrowdField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<div class=\"crowd-caption-item\">\n<strong>%s:</strong>\n<p>%s</p>\n</div>\n", label, html.EscapeString(value))
}

func writeCaptionField(b *strings.Builder, label, value, class string) {
	b.WriteString("<div class=\"caption-field\">\n")
	fmt.Fprintf(b, "<strong>%s:</strong>\n", html.EscapeString(label))
	if class != "" {
		fmt.Fprintf(b, "<p class=\"%s\">%s</p>\n", class, html.EscapeString(value))
	} else {
		fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(value))
	}
	b.WriteString("</div>\n")
}

func writeIncompleteVideo(b *strings.Builder, video export.Video, requiredTypes []string, summary map[string]string) {
	videoID := html.EscapeString(video.VideoID)
	fmt.Fprintf(b, "<div class=\"video-section incomplete\" id=\"%s\">\n", videoID)
	fmt.Fprintf(b, "<h2 class=\"video-title\">%s <span class=\"incomplete-badge\">⏳ In Progress</span></h2>\n", videoID)
	b.WriteString("<div class=\"status-grid\">\n")
	for _, captionType := range requiredTypes {
		status := summary[captionType]
		text, ok := statusDisplay[status]
		if !ok {
			text = status
		}
		fmt.Fprintf(b, "<div class=\"status-item %s\">\n<strong>%s:</strong>\n<span class=\"status-text\">%s</span>\n</div>\n",
			status, html.EscapeString(displayType(captionType)), text)
	}
	b.WriteString("</div>\n</div>\n")
}

const siteHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Video Caption Annotations</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; background: #f5f5f5; padding: 20px; }
.container { max-width: 1400px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
h1 { color: #2c3e50; margin-bottom: 10px; font-size: 2.5em; }
.summary { background: #ecf0f1; padding: 20px; border-radius: 6px; margin-bottom: 30px; }
.summary-stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; margin-top: 15px; }
.stat-item { background: white; padding: 15px; border-radius: 6px; text-align: center; }
.stat-number { font-size: 2em; font-weight: bold; color: #3498db; }
.stat-label { color: #7f8c8d; font-size: 0.9em; }
.navigation { background: #34495e; color: white; padding: 15px; border-radius: 6px; margin-bottom: 30px; }
.navigation a { color: #3498db; text-decoration: none; padding: 5px 10px; }
.section-header { background: #3498db; color: white; padding: 15px 20px; border-radius: 6px; margin: 30px 0 20px 0; font-size: 1.5em; }
.video-section { margin-bottom: 40px; border: 2px solid #e0e0e0; border-radius: 8px; padding: 25px; }
.video-title { color: #2c3e50; margin-bottom: 15px; }
.video-container { margin-bottom: 20px; }
.download-link { margin-top: 8px; }
.crowd-captions { background: #fdf6e3; border-radius: 6px; padding: 15px; margin-bottom: 20px; }
.crowd-caption-grid, .caption-grid, .status-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 15px; }
.caption-card { background: #fafafa; border-radius: 6px; padding: 15px; border-left: 4px solid #bdc3c7; }
.caption-card.approved { border-left-color: #27ae60; }
.caption-card.rejected { border-left-color: #e74c3c; }
.status-badge { display: inline-block; padding: 3px 10px; border-radius: 12px; font-size: 0.85em; margin-bottom: 10px; background: #ecf0f1; }
.caption-field { margin-bottom: 10px; }
.final-caption { background: #eafaf1; padding: 8px; border-radius: 4px; }
.user-info { margin-top: 10px; color: #7f8c8d; font-size: 0.9em; display: flex; gap: 15px; }
.incomplete-badge { font-size: 0.6em; color: #f39c12; }
.status-item { background: white; padding: 15px; border-radius: 6px; border-left: 4px solid #bdc3c7; }
.status-item.approved { border-left-color: #27ae60; }
.status-item.rejected { border-left-color: #e74c3c; }
.status-item.completed_not_reviewed { border-left-color: #f39c12; }
.status-text { color: #7f8c8d; font-size: 0.95em; }
@media (max-width: 768px) { .caption-grid, .status-grid, .crowd-caption-grid { grid-template-columns: 1fr; } }
</style>
</head>
<body>
<div class="container">
<h1>📹 Video Caption Annotations</h1>
`
