package main

import (
	"flag"
	"fmt"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/videosample"
	"github.com/camerabench/captionkit/pkg/log"
)

func runOrganizeLabels(_ *config.Config, args []string) error {
	flags := flag.NewFlagSet("organize-labels", flag.ExitOnError)
	labelJSON := flags.String("label-json", "", "JSON file of per-label pos/neg video lists")
	srcDir := flags.String("src-dir", "", "directory holding the source videos")
	outDir := flags.String("output", "small_labels", "output directory for per-label folders")
	threshold := flags.Int("threshold", 10, "copy labels with fewer positives than this")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *labelJSON == "" || *srcDir == "" {
		return fmt.Errorf("--label-json and --src-dir are required")
	}

	result, err := videosample.OrganizeSmallLabels(*labelJSON, *srcDir, *outDir, *threshold)
	if err != nil {
		return err
	}
	if result.MissingVideos > 0 {
		log.Warn("%d listed videos were missing from %s", result.MissingVideos, *srcDir)
	}
	return nil
}

func runSampleVideos(_ *config.Config, args []string) error {
	flags := flag.NewFlagSet("sample-videos", flag.ExitOnError)
	labelJSON := flags.String("label-json", "", "JSON file of per-label pos/neg video lists")
	label := flags.String("label", "has_shot_transition", "label whose pos/neg lists feed the pools")
	srcDir := flags.String("src-dir", "", "directory holding the pos/neg source videos")
	extraDir := flags.String("extra-dir", "", "directory holding the extra pool videos")
	outDir := flags.String("output", "benchmark_sample", "output directory for the sample")
	cutCount := flags.Int("cut-count", 50, "videos to draw from the positive pool")
	noCutCount := flags.Int("no-cut-count", 50, "videos to draw from the negative pool")
	extraCount := flags.Int("extra-count", 50, "videos to draw from the extra pool")
	seed := flags.Int64("seed", 42, "sampling seed")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *labelJSON == "" || *srcDir == "" {
		return fmt.Errorf("--label-json and --src-dir are required")
	}
	if *cutCount < 0 || *noCutCount < 0 || *extraCount < 0 {
		return fmt.Errorf("pool counts must be non-negative")
	}

	result, err := videosample.BuildBenchmarkSample(videosample.BenchmarkConfig{
		LabelJSON:  *labelJSON,
		Label:      *label,
		SrcDir:     *srcDir,
		ExtraDir:   *extraDir,
		OutDir:     *outDir,
		CutCount:   *cutCount,
		NoCutCount: *noCutCount,
		ExtraCount: *extraCount,
		Seed:       *seed,
	})
	if err != nil {
		return err
	}
	for pool, count := range result.Copied {
		log.Info("Copied %d videos into %s", count, pool)
	}
	if result.Missing > 0 {
		log.Warn("%d sampled videos were missing from the source directories", result.Missing)
	}
	return nil
}
