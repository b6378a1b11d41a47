package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/detect"
	"github.com/camerabench/captionkit/internal/export"
	"github.com/camerabench/captionkit/internal/persistence"
	"github.com/camerabench/captionkit/pkg/file"
	"github.com/camerabench/captionkit/pkg/log"
)

func runDetect(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("detect", flag.ExitOnError)
	exportFolder := flags.String("export-folder", "", "folder with the consolidated export")
	detectorName := flags.String("detector", "", "detector to run: "+fmt.Sprint(detect.Names()))
	sampleCount := flags.Int("sample-count", -1, "samples to classify, -1 for all")
	seed := flags.Int64("seed", int64(cfg.Detect.Seed), "sampling seed")
	model := flags.String("model", "", "LLM model override")
	outputDir := flags.String("output", "detection_results", "output directory for run artifacts")
	runID := flags.String("run-id", "", "resume a previous run instead of starting a new one")
	targetUser := flags.String("target-user", "", "annotator for the direct-edit detector")
	batchDir := flags.String("batch-dir", "", "directory of batch sheet video URL files")
	noCheckpoint := flags.Bool("no-checkpoint", false, "run without the SQLite checkpoint store")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *detectorName == "" {
		return fmt.Errorf("--detector is required")
	}
	if *sampleCount < -1 {
		return fmt.Errorf("--sample-count must be -1 (all) or non-negative, got %d", *sampleCount)
	}

	detector, err := detect.Lookup(*detectorName)
	if err != nil {
		return err
	}
	detector = detector.WithTargetUser(*targetUser)

	videos, exportPath, err := loadExport(cfg, *exportFolder)
	if err != nil {
		return err
	}
	mapping, err := export.LoadBatchMapping(*batchDir)
	if err != nil {
		return err
	}

	stats := export.ExtractStatistics(videos, mapping)
	population := stats.AllSamples
	if detector.Prefilter != nil {
		filtered := make([]export.Sample, 0, len(population))
		for _, sample := range population {
			if detector.Prefilter(sample) {
				filtered = append(filtered, sample)
			}
		}
		log.Info("Prefilter kept %d of %d samples", len(filtered), len(population))
		population = filtered
		if detector.Name == "camera-nitpick" {
			stats.WithCameraPattern = len(filtered)
		}
	}
	for i := range population {
		population[i].NumChanges = export.CountWordChanges(population[i].PreCaption, population[i].FinalCaption)
	}

	samples := population
	switch {
	case *sampleCount == -1:
		log.Info("Classifying the full population: %d samples", len(samples))
	case len(population) < *sampleCount:
		log.Warn("Only %d samples available, requested %d", len(population), *sampleCount)
	default:
		samples = export.SampleN(population, *sampleCount, *seed)
	}

	var client detect.TextGenerator
	if detector.UsesLLM() {
		llmClient, err := newLLMClient(cfg, *model)
		if err != nil {
			return err
		}
		client = llmClient
	}

	var store detect.Store
	if !*noCheckpoint {
		sqlStore, err := persistence.NewSQLiteStore(cfg.Data.CheckpointDB)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	id := *runID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	run := &persistence.DetectionRun{
		ID:          id,
		Detector:    detector.Name,
		ExportPath:  exportPath,
		Model:       *model,
		Seed:        *seed,
		SampleCount: *sampleCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if run.Model == "" && detector.UsesLLM() {
		run.Model = cfg.LLM.Model
	}

	runner, err := detect.NewRunner(detector, client, store, cfg.Detect.Workers)
	if err != nil {
		return err
	}

	// Interrupt stops feeding new samples; checkpointed work survives.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting run %s: detector=%s samples=%d workers=%d", id, detector.Name, len(samples), cfg.Detect.Workers)
	classified, err := runner.Run(ctx, run, samples)
	switch {
	case err == context.Canceled:
		log.Warn("Run interrupted, writing partial results (resume with --run-id %s)", id)
	case err != nil:
		return err
	}

	runDir := filepath.Join(*outputDir, fmt.Sprintf("%s_%s", detector.Name, shortID(id)))
	if err := file.EnsureDir(runDir); err != nil {
		return err
	}

	input := &detect.ReportInput{
		Run:        run,
		Detector:   detector,
		Samples:    classified,
		Stats:      stats,
		Timestamp:  time.Now(),
		MaxNoShown: 20,
		VideoURL: func(videoID string) string {
			if batch, ok := mapping.Lookup(videoID); ok {
				return batch.FullURL
			}
			return ""
		},
	}
	if err := writeRunArtifacts(runDir, input); err != nil {
		return err
	}
	log.Info("Run %s complete, artifacts in %s", id, runDir)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeRunArtifacts(dir string, input *detect.ReportInput) error {
	jsonl, err := os.Create(filepath.Join(dir, "sampled_data.jsonl"))
	if err != nil {
		return err
	}
	defer jsonl.Close()
	if err := detect.WriteJSONL(jsonl, input.Samples); err != nil {
		return err
	}

	md, err := os.Create(filepath.Join(dir, "report.md"))
	if err != nil {
		return err
	}
	defer md.Close()
	if err := input.WriteMarkdown(md); err != nil {
		return err
	}

	html, err := os.Create(filepath.Join(dir, "report.html"))
	if err != nil {
		return err
	}
	defer html.Close()
	return input.WriteHTML(html)
}
