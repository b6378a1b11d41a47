package annotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/camerabench/captionkit/pkg/file"
)

// Store reads and writes annotations under
// <root>/<dataset>/sample_<index>.json. Writes go through a temp file and
// rename so a crash never leaves a half-written annotation.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("annotations directory is required")
	}
	if err := file.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("create annotations directory: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) path(dataset string, index int) string {
	return filepath.Join(s.root, dataset, fmt.Sprintf("sample_%d.json", index))
}

// Get loads one annotation. Returns nil without error when none exists.
func (s *Store) Get(dataset string, index int) (*Annotation, error) {
	data, err := os.ReadFile(s.path(dataset, index))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read annotation %s/%d: %w", dataset, index, err)
	}

	var annotation Annotation
	if err := json.Unmarshal(data, &annotation); err != nil {
		return nil, fmt.Errorf("parse annotation %s/%d: %w", dataset, index, err)
	}
	return &annotation, nil
}

// Save writes one annotation, creating the dataset directory on first use.
func (s *Store) Save(dataset string, index int, annotation *Annotation) error {
	if annotation == nil {
		return fmt.Errorf("annotation is nil")
	}
	if err := file.EnsureDir(filepath.Join(s.root, dataset)); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	data, err := json.MarshalIndent(annotation, "", "  ")
	if err != nil {
		return fmt.Errorf("encode annotation: %w", err)
	}
	if err := file.WriteAtomic(s.path(dataset, index), data); err != nil {
		return fmt.Errorf("write annotation %s/%d: %w", dataset, index, err)
	}
	return nil
}

// List loads every annotation saved for a dataset, keyed by sample index.
// Files that do not match the sample_<n>.json pattern are ignored.
func (s *Store) List(dataset string) (map[int]*Annotation, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dataset))
	if os.IsNotExist(err) {
		return map[int]*Annotation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list annotations for %s: %w", dataset, err)
	}

	annotations := make(map[int]*Annotation)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		index, ok := sampleIndex(entry.Name())
		if !ok {
			continue
		}
		annotation, err := s.Get(dataset, index)
		if err != nil {
			return nil, err
		}
		if annotation != nil {
			annotations[index] = annotation
		}
	}
	return annotations, nil
}

func sampleIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "sample_") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "sample_"), ".json"))
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
