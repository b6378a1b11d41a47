package main

import (
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/hierarchy"
	"github.com/camerabench/captionkit/internal/report"
	"github.com/camerabench/captionkit/pkg/file"
	"github.com/camerabench/captionkit/pkg/log"
)

func splitCollections(value string) []string {
	if value == "" {
		return hierarchy.DefaultCollections
	}
	parts := strings.Split(value, ",")
	collections := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			collections = append(collections, part)
		}
	}
	return collections
}

func loadHierarchy(labelsDir, collections string) (hierarchy.Hierarchy, error) {
	primitives, err := hierarchy.Extract(labelsDir, splitCollections(collections))
	if err != nil {
		return nil, err
	}
	return hierarchy.Organize(primitives), nil
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return file.WriteAtomic(path, append(data, '\n'))
}

func runHierarchy(_ *config.Config, args []string) error {
	flags := flag.NewFlagSet("hierarchy", flag.ExitOnError)
	labelsDir := flags.String("labels-dir", "labels", "root of the label definition tree")
	collections := flags.String("collections", "", "comma-separated collections (default cam_motion,cam_setup)")
	output := flags.String("output", "hierarchy.json", "output JSON path")
	if err := flags.Parse(args); err != nil {
		return err
	}

	organized, err := loadHierarchy(*labelsDir, *collections)
	if err != nil {
		return err
	}
	if err := writeJSONFile(*output, organized); err != nil {
		return err
	}
	log.Info("Wrote hierarchy for %d collections to %s", len(organized), *output)
	return nil
}

func runLabelMap(_ *config.Config, args []string) error {
	flags := flag.NewFlagSet("label-map", flag.ExitOnError)
	labelsDir := flags.String("labels-dir", "labels", "root of the label definition tree")
	collections := flags.String("collections", "", "comma-separated collections (default cam_motion,cam_setup)")
	output := flags.String("output", "label_name_to_label.json", "output JSON path")
	if err := flags.Parse(args); err != nil {
		return err
	}

	primitives, err := hierarchy.Extract(*labelsDir, splitCollections(*collections))
	if err != nil {
		return err
	}
	mapping := hierarchy.NameToLabel(primitives)
	if err := writeJSONFile(*output, mapping); err != nil {
		return err
	}
	log.Info("Wrote %d label name mappings to %s", len(mapping), *output)
	return nil
}

func runLatexTables(_ *config.Config, args []string) error {
	flags := flag.NewFlagSet("latex-tables", flag.ExitOnError)
	labelsDir := flags.String("labels-dir", "labels", "root of the label definition tree")
	collections := flags.String("collections", "", "comma-separated collections (default cam_motion,cam_setup)")
	output := flags.String("output", "latex_tables.html", "output HTML path")
	definitionOnly := flags.Bool("definition-only", false, "two-column tables with definitions only")
	if err := flags.Parse(args); err != nil {
		return err
	}

	organized, err := loadHierarchy(*labelsDir, *collections)
	if err != nil {
		return err
	}

	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := report.WriteLatexHTML(out, organized, report.LatexOptions{DefinitionOnly: *definitionOnly}); err != nil {
		return err
	}
	log.Info("Wrote LaTeX tables page to %s", *output)
	return nil
}
