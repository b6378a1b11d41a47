// Package dataset loads caption datasets from a local directory tree and
// merges in annotation progress. Each dataset is a folder of JSON files;
// the first file (sorted) holds the payload:
//
//	{"dataset_name": "...", "split": "...", "samples": [ ... ]}
//
// Samples are schema-free JSON objects served to the viewer UI verbatim, so
// they are kept as maps rather than structs.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sample is one dataset entry. The viewer passes it through untouched except
// for the injected annotation_status field.
type Sample map[string]any

// SetAnnotationStatus injects the pending/incomplete/completed marker.
func (s Sample) SetAnnotationStatus(status string) {
	s["annotation_status"] = status
}

// Duration returns the video duration from metadata, if present.
func (s Sample) Duration() (float64, bool) {
	return s.metadataNumber("duration")
}

// FPS returns the video frame rate from metadata, if present.
func (s Sample) FPS() (float64, bool) {
	return s.metadataNumber("fps")
}

func (s Sample) metadataNumber(key string) (float64, bool) {
	metadata, ok := s["metadata"].(map[string]any)
	if !ok {
		return 0, false
	}
	value, ok := metadata[key].(float64)
	return value, ok
}

// WordCount sums the words across every caption the sample carries.
// Caption shapes vary by dataset: "single" is a plain string, "structured"
// a map of named captions, "temporal" a list of segments with caption or
// content text, and "multiple_annotators" a possibly nested list.
func (s Sample) WordCount() int {
	captions, ok := s["captions"].(map[string]any)
	if !ok {
		return 0
	}

	words := 0
	for captionType, payload := range captions {
		switch captionType {
		case "single":
			words += countWords(payload)
		case "structured":
			if structured, ok := payload.(map[string]any); ok {
				for _, value := range structured {
					words += countWords(value)
				}
			}
		case "temporal":
			if segments, ok := payload.([]any); ok {
				for _, raw := range segments {
					segment, ok := raw.(map[string]any)
					if !ok {
						continue
					}
					text := segment["caption"]
					if text == nil || text == "" {
						text = segment["content"]
					}
					words += countWords(text)
				}
			}
		case "multiple_annotators":
			if annotators, ok := payload.([]any); ok {
				for _, entry := range annotators {
					if nested, ok := entry.([]any); ok {
						for _, caption := range nested {
							words += countWords(caption)
						}
					} else {
						words += countWords(entry)
					}
				}
			}
		}
	}
	return words
}

func countWords(value any) int {
	text, ok := value.(string)
	if !ok {
		if value == nil {
			return 0
		}
		text = fmt.Sprintf("%v", value)
	}
	return len(strings.Fields(text))
}

// Dataset is one loaded dataset payload.
type Dataset struct {
	Name    string   `json:"dataset_name"`
	Split   string   `json:"split"`
	Samples []Sample `json:"samples"`
}

// Info describes a dataset available on disk.
type Info struct {
	Name      string   `json:"name"`
	JSONFiles []string `json:"json_files"`
}

// ListDatasets scans the datasets root for folders containing JSON files.
func ListDatasets(root string) ([]Info, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan datasets root: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := datasetFiles(root, entry.Name())
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}
		relative := make([]string, len(files))
		for i, f := range files {
			relative[i] = filepath.Join(entry.Name(), filepath.Base(f))
		}
		infos = append(infos, Info{Name: entry.Name(), JSONFiles: relative})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func datasetFiles(root, name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, name, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadDataset reads a dataset's first JSON file. Returns nil when the
// dataset does not exist.
func LoadDataset(root, name string) (*Dataset, error) {
	files, err := datasetFiles(root, name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", name, err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", name, err)
	}
	if ds.Name == "" {
		ds.Name = name
	}
	if ds.Split == "" {
		ds.Split = "unknown"
	}
	return &ds, nil
}
