package shotbench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/camerabench/captionkit/pkg/file"
)

// Review is one annotator's verdict on a sample pair. Unknown fields from
// the UI survive a round trip through Extra.
type Review struct {
	SampleIndex           int    `json:"sample_index"`
	ShotBenchMistake      bool   `json:"shotbench_mistake"`
	ShotBenchMistakeType  string `json:"shotbench_mistake_type,omitempty"`
	RefineShotMistake     bool   `json:"refineshot_mistake"`
	RefineShotMistakeType string `json:"refineshot_mistake_type,omitempty"`
	Notes                 string `json:"notes,omitempty"`
	Annotator             string `json:"annotator,omitempty"`
	Timestamp             string `json:"timestamp,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// HasMistake reports whether either benchmark was flagged.
func (r *Review) HasMistake() bool {
	return r != nil && (r.ShotBenchMistake || r.RefineShotMistake)
}

type reviewAlias Review

var reviewKnownFields = map[string]bool{
	"sample_index": true, "shotbench_mistake": true, "shotbench_mistake_type": true,
	"refineshot_mistake": true, "refineshot_mistake_type": true,
	"notes": true, "annotator": true, "timestamp": true,
}

func (r *Review) UnmarshalJSON(data []byte) error {
	var alias reviewAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if reviewKnownFields[key] {
			delete(raw, key)
		}
	}

	*r = Review(alias)
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

func (r *Review) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(reviewAlias(*r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(r.Extra)+len(reviewKnownFields))
	for key, value := range r.Extra {
		merged[key] = value
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for key, value := range knownMap {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// ReviewStore keeps reviews as flat <root>/sample_<index>.json files. One
// review set covers both benchmarks since samples are paired by index.
type ReviewStore struct {
	root string
}

func NewReviewStore(root string) (*ReviewStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("reviews directory is required")
	}
	if err := file.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("create reviews directory: %w", err)
	}
	return &ReviewStore{root: root}, nil
}

func (s *ReviewStore) path(index int) string {
	return filepath.Join(s.root, fmt.Sprintf("sample_%d.json", index))
}

// Get loads one review. Returns nil without error when none exists.
func (s *ReviewStore) Get(index int) (*Review, error) {
	data, err := os.ReadFile(s.path(index))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read review %d: %w", index, err)
	}

	var review Review
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, fmt.Errorf("parse review %d: %w", index, err)
	}
	return &review, nil
}

// Save writes one review, stamping the sample index into the payload.
func (s *ReviewStore) Save(index int, review *Review) error {
	if review == nil {
		return fmt.Errorf("review is nil")
	}
	review.SampleIndex = index

	data, err := json.MarshalIndent(review, "", "  ")
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	if err := file.WriteAtomic(s.path(index), data); err != nil {
		return fmt.Errorf("write review %d: %w", index, err)
	}
	return nil
}

// List loads every saved review keyed by sample index.
func (s *ReviewStore) List() (map[int]*Review, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return map[int]*Review{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	reviews := make(map[int]*Review)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		index, ok := reviewIndex(entry.Name())
		if !ok {
			continue
		}
		review, err := s.Get(index)
		if err != nil {
			return nil, err
		}
		if review != nil {
			reviews[index] = review
		}
	}
	return reviews, nil
}

func reviewIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "sample_") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "sample_"), ".json"))
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
