// Package videosample wrangles label-to-video JSON files into folders of
// video files for manual review and benchmark construction.
package videosample

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/camerabench/captionkit/pkg/file"
	"github.com/camerabench/captionkit/pkg/log"
)

// LabelVideos is the per-label entry in an all_labels.json file: lists of
// positive and negative example video names. Some dumps store full paths;
// only the basename is used.
type LabelVideos struct {
	Pos []string `json:"pos"`
	Neg []string `json:"neg"`
}

// LoadLabelVideos reads an all_labels.json mapping of label key to examples.
func LoadLabelVideos(path string) (map[string]LabelVideos, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label file %s: %w", path, err)
	}
	var labels map[string]LabelVideos
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse label file %s: %w", path, err)
	}
	return labels, nil
}

// OrganizeResult reports what an OrganizeSmallLabels run did.
type OrganizeResult struct {
	ProcessedLabels int
	CopiedVideos    int
	MissingVideos   int
}

// OrganizeSmallLabels copies the positive examples of every rare label
// (0 < positives < threshold) into a per-label folder under outDir. Label
// keys contain dots but no path separators, so they are safe as folder
// names. Missing source videos are warned about and skipped.
func OrganizeSmallLabels(labelJSON, srcDir, outDir string, threshold int) (*OrganizeResult, error) {
	labels, err := LoadLabelVideos(labelJSON)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := &OrganizeResult{}
	for _, key := range keys {
		positives := labels[key].Pos
		if len(positives) == 0 || len(positives) >= threshold {
			continue
		}

		labelDir := filepath.Join(outDir, key)
		if err := file.EnsureDir(labelDir); err != nil {
			return nil, fmt.Errorf("create label folder %s: %w", labelDir, err)
		}
		log.Info("Organizing label %s (%d videos)", key, len(positives))

		for _, video := range positives {
			name := filepath.Base(video)
			if err := copyFile(filepath.Join(srcDir, name), filepath.Join(labelDir, name)); err != nil {
				if os.IsNotExist(err) {
					log.Warn("Video not found: %s", name)
					result.MissingVideos++
					continue
				}
				return nil, err
			}
			result.CopiedVideos++
		}
		result.ProcessedLabels++
	}

	log.Info("Organized %d labels, copied %d videos", result.ProcessedLabels, result.CopiedVideos)
	return result, nil
}

// BenchmarkConfig drives BuildBenchmarkSample. Each pool is sampled without
// replacement into its own folder under OutDir.
type BenchmarkConfig struct {
	LabelJSON string
	// Label whose pos/neg lists feed the cut and no-cut pools.
	Label string
	// Directory holding the pos/neg source videos.
	SrcDir string
	// Directory holding the extra pool videos (every *.mp4 inside).
	ExtraDir string
	OutDir   string

	CutCount   int
	NoCutCount int
	ExtraCount int

	Seed int64
}

// Pool folder names under OutDir.
const (
	cutFolder   = "camerabench_cut"
	noCutFolder = "camerabench_no_cut"
	extraFolder = "flim"
)

// SampleResult counts the videos copied per pool.
type SampleResult struct {
	Copied  map[string]int
	Missing int
}

// BuildBenchmarkSample assembles a benchmark folder from three pools: shot
// transition positives, negatives, and an extra footage directory. Sampling
// is seeded so a rerun with the same seed picks the same videos.
func BuildBenchmarkSample(cfg BenchmarkConfig) (*SampleResult, error) {
	labels, err := LoadLabelVideos(cfg.LabelJSON)
	if err != nil {
		return nil, err
	}
	entry, ok := labels[cfg.Label]
	if !ok {
		return nil, fmt.Errorf("label %q not found in %s", cfg.Label, cfg.LabelJSON)
	}

	extras, err := filepath.Glob(filepath.Join(cfg.ExtraDir, "*.mp4"))
	if err != nil {
		return nil, err
	}
	sort.Strings(extras)
	extraNames := make([]string, len(extras))
	for i, path := range extras {
		extraNames[i] = filepath.Base(path)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	pools := []struct {
		folder string
		videos []string
		count  int
		srcDir string
	}{
		{cutFolder, entry.Pos, cfg.CutCount, cfg.SrcDir},
		{noCutFolder, entry.Neg, cfg.NoCutCount, cfg.SrcDir},
		{extraFolder, extraNames, cfg.ExtraCount, cfg.ExtraDir},
	}

	result := &SampleResult{Copied: map[string]int{}}
	for _, pool := range pools {
		log.Info("Processing %s...", pool.folder)
		saveDir := filepath.Join(cfg.OutDir, pool.folder)
		if err := file.EnsureDir(saveDir); err != nil {
			return nil, err
		}

		for _, video := range sampleVideos(rng, pool.videos, pool.count) {
			name := filepath.Base(video)
			if err := copyFile(filepath.Join(pool.srcDir, name), filepath.Join(saveDir, name)); err != nil {
				if os.IsNotExist(err) {
					log.Warn("Video not found: %s", name)
					result.Missing++
					continue
				}
				return nil, err
			}
			result.Copied[pool.folder]++
		}
	}
	return result, nil
}

// sampleVideos picks count entries without replacement, or all of them when
// the pool is smaller.
func sampleVideos(rng *rand.Rand, videos []string, count int) []string {
	shuffled := make([]string, len(videos))
	copy(shuffled, videos)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
