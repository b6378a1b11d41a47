// Command captionkit is the batch tool around the caption pipeline: export
// analysis, edit-pattern detection, taxonomy extraction and the static
// report generators. Run without arguments for the command list.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/export"
	"github.com/camerabench/captionkit/internal/llm"
	"github.com/camerabench/captionkit/pkg/log"
)

type command struct {
	name    string
	summary string
	run     func(cfg *config.Config, args []string) error
}

var commands = []command{
	{"analyze-newlines", "newline usage report over critiques and captions", runAnalyzeNewlines},
	{"caption-stats", "word count and language statistics for an export", runCaptionStats},
	{"detect", "classify reviewed captions with an edit-pattern detector", runDetect},
	{"extract-captions", "dump reviewed final captions to per-type text files", runExtractCaptions},
	{"extract-config", "write the merged-caption prompt config file", runExtractConfig},
	{"hierarchy", "extract the label taxonomy into a JSON hierarchy", runHierarchy},
	{"label-map", "build the label display name to key mapping", runLabelMap},
	{"latex-tables", "render taxonomy LaTeX tables as a copyable HTML page", runLatexTables},
	{"merge-captions", "merge five per-type captions into one via the LLM", runMergeCaptions},
	{"organize-labels", "copy videos of small labels into per-label folders", runOrganizeLabels},
	{"sample-videos", "draw a seeded benchmark sample for one label", runSampleVideos},
	{"static-html", "generate the annotation progress page", runStaticHTML},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if err := cmd.run(cfg, os.Args[2:]); err != nil {
		log.Fatal("%s: %v", cmd.name, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: captionkit <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	sorted := append([]command(nil), commands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	for _, cmd := range sorted {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", cmd.name, cmd.summary)
	}
}

// loadExport locates and loads the consolidated export under folder,
// falling back to EXPORT_DIR when the flag is empty.
func loadExport(cfg *config.Config, folder string) ([]export.Video, string, error) {
	if folder == "" {
		folder = cfg.Data.ExportDir
	}
	if folder == "" {
		return nil, "", fmt.Errorf("no export folder given (use --export-folder or EXPORT_DIR)")
	}

	path, err := export.FindConsolidated(folder)
	if err != nil {
		return nil, "", err
	}
	videos, err := export.Load(path)
	if err != nil {
		return nil, "", err
	}
	log.Info("Loaded %d videos from %s", len(videos), path)
	return videos, path, nil
}

// newLLMClient builds a client from the environment config with an optional
// model override.
func newLLMClient(cfg *config.Config, model string) (*llm.Client, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	if model == "" {
		model = cfg.LLM.Model
	}
	return llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
}
