package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/camerabench/captionkit/internal/analyze"
	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/export"
	"github.com/camerabench/captionkit/pkg/file"
	"github.com/camerabench/captionkit/pkg/log"
)

func runAnalyzeNewlines(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("analyze-newlines", flag.ExitOnError)
	exportFolder := flags.String("export-folder", "", "folder with the consolidated export")
	outputDir := flags.String("output", "newline_analysis", "output directory for report and CSV")
	if err := flags.Parse(args); err != nil {
		return err
	}

	videos, _, err := loadExport(cfg, *exportFolder)
	if err != nil {
		return err
	}

	report := analyze.AnalyzeNewlines(videos)

	if err := file.EnsureDir(*outputDir); err != nil {
		return err
	}
	reportPath := filepath.Join(*outputDir, "newline_analysis_report.md")
	csvPath := filepath.Join(*outputDir, "newline_analysis.csv")

	md, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer md.Close()
	if err := report.WriteMarkdown(md); err != nil {
		return err
	}

	csv, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer csv.Close()
	if err := report.WriteCSV(csv); err != nil {
		return err
	}

	log.Info("Wrote %s and %s", reportPath, csvPath)
	return nil
}

func runCaptionStats(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("caption-stats", flag.ExitOnError)
	exportFolder := flags.String("export-folder", "", "folder with the consolidated export")
	if err := flags.Parse(args); err != nil {
		return err
	}

	videos, _, err := loadExport(cfg, *exportFolder)
	if err != nil {
		return err
	}

	stats := analyze.CaptionStats(videos)
	fmt.Println("Caption statistics (approved/rejected entries):")
	fmt.Printf("%-16s %8s %10s %12s %14s %10s\n",
		"type", "count", "pre words", "final words", "feedback words", "avg rating")
	for _, s := range stats {
		rating := "n/a"
		if s.RatedCount > 0 {
			rating = fmt.Sprintf("%.2f", s.AvgRating)
		}
		fmt.Printf("%-16s %8d %10.1f %12.1f %14.1f %10s\n",
			s.CaptionType, s.Count, s.AvgPreWords, s.AvgFinalWords, s.AvgFeedbackWords, rating)
	}

	var feedbacks []string
	for _, video := range videos {
		for _, entry := range video.Captions {
			if entry.Approved() && entry.CaptionData != nil {
				feedbacks = append(feedbacks, entry.CaptionData.FinalFeedback.String())
			}
		}
	}
	mix := analyze.LanguageMix(feedbacks)
	fmt.Println("\nFeedback languages:")
	for _, lang := range mix {
		fmt.Printf("  %-4s %-16s %6d (%.1f%%)\n", lang.Code, lang.Name, lang.Count, lang.Percentage)
	}
	return nil
}

// extractedCaption is one reviewed final caption headed for a text file.
type extractedCaption struct {
	videoID string
	caption string
	status  string
}

func runExtractCaptions(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("extract-captions", flag.ExitOnError)
	exportFolder := flags.String("export-folder", "", "folder with the consolidated export")
	outputDir := flags.String("output", "final_captions", "output directory for caption text files")
	if err := flags.Parse(args); err != nil {
		return err
	}

	videos, _, err := loadExport(cfg, *exportFolder)
	if err != nil {
		return err
	}

	byType := map[string][]extractedCaption{}
	byStatus := map[string]map[string]int{}
	complete := 0
	captionTypes := export.DetectCaptionTypes(videos)

	for _, video := range videos {
		found := 0
		for captionType, entry := range video.Captions {
			if !entry.Approved() || entry.CaptionData == nil {
				continue
			}
			caption := strings.TrimSpace(entry.CaptionData.FinalCaption)
			if caption == "" {
				continue
			}
			byType[captionType] = append(byType[captionType], extractedCaption{
				videoID: video.VideoID,
				caption: caption,
				status:  entry.Status,
			})
			if byStatus[captionType] == nil {
				byStatus[captionType] = map[string]int{}
			}
			byStatus[captionType][entry.Status]++
			found++
		}
		if found == len(captionTypes) {
			complete++
		}
	}

	if err := file.EnsureDir(*outputDir); err != nil {
		return err
	}
	for _, captionType := range captionTypes {
		captions := byType[captionType]
		if len(captions) == 0 {
			log.Warn("No captions found for %s", captionType)
			continue
		}
		// Stable output across runs.
		sort.Slice(captions, func(i, j int) bool { return captions[i].videoID < captions[j].videoID })

		var b strings.Builder
		for _, c := range captions {
			b.WriteString(c.caption)
			b.WriteByte('\n')
		}
		path := filepath.Join(*outputDir, captionType+"_captions.txt")
		if err := file.WriteAtomic(path, []byte(b.String())); err != nil {
			return err
		}
		log.Info("Saved %d captions to %s (approved %d, rejected %d)",
			len(captions), path, byStatus[captionType]["approved"], byStatus[captionType]["rejected"])
	}

	log.Info("Scanned %d videos, %d with every caption type reviewed", len(videos), complete)
	return nil
}
