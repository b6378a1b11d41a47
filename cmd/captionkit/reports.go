package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/report"
	"github.com/camerabench/captionkit/pkg/log"
)

func runStaticHTML(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("static-html", flag.ExitOnError)
	exportFolder := flags.String("export-folder", "", "folder with the consolidated export")
	output := flags.String("output", "caption_progress.html", "output HTML path")
	crowdPath := flags.String("crowd-captions", "", "JSON file of crowd captions keyed by video filename")
	videosFile := flags.String("videos-file", "", "JSON list of video filenames to include (default: all)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	videos, _, err := loadExport(cfg, *exportFolder)
	if err != nil {
		return err
	}

	opts := report.SiteOptions{}
	if *crowdPath != "" {
		crowd, err := report.LoadCrowdCaptions(*crowdPath)
		if err != nil {
			return err
		}
		opts.CrowdCaptions = crowd
		log.Info("Loaded %d crowd captions", len(crowd))
	}
	if *videosFile != "" {
		data, err := os.ReadFile(*videosFile)
		if err != nil {
			return err
		}
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		opts.IncludeVideos = make(map[string]bool, len(names))
		for _, name := range names {
			opts.IncludeVideos[name] = true
		}
	}

	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := report.WriteSite(out, videos, opts); err != nil {
		return err
	}
	log.Info("Wrote progress page to %s", *output)
	return nil
}
