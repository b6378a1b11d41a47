package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/camerabench/captionkit/pkg/file"
	"github.com/camerabench/captionkit/pkg/log"
)

// ConsolidatedPattern matches the export file produced by critique generation.
const ConsolidatedPattern = "all_videos_with_captions_and_critiques_*.json"

// FindConsolidated locates the consolidated critique export in an export
// folder. With multiple matches the lexically first one wins.
func FindConsolidated(exportDir string) (string, error) {
	matches, err := file.FindGlob(exportDir, ConsolidatedPattern)
	if err != nil {
		return "", fmt.Errorf("failed to scan export folder: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no consolidated critique file found in %s (looking for %s)",
			exportDir, ConsolidatedPattern)
	}
	if len(matches) > 1 {
		log.Warn("Multiple consolidated files found, using: %s", filepath.Base(matches[0]))
	}
	return matches[0], nil
}

// Load reads an export file. Both the array form and the object form keyed
// by video id are accepted; the object form is flattened into a list sorted
// by video id so downstream iteration is deterministic.
func Load(path string) ([]Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("export file %s is empty", path)
	}

	if trimmed[0] == '[' {
		var videos []Video
		if err := json.Unmarshal(trimmed, &videos); err != nil {
			return nil, fmt.Errorf("failed to parse export file %s: %w", path, err)
		}
		return videos, nil
	}

	var byID map[string]Video
	if err := json.Unmarshal(trimmed, &byID); err != nil {
		return nil, fmt.Errorf("failed to parse export file %s: %w", path, err)
	}

	videos := make([]Video, 0, len(byID))
	for videoID, video := range byID {
		if video.VideoID == "" {
			video.VideoID = videoID
		}
		videos = append(videos, video)
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].VideoID < videos[j].VideoID
	})
	return videos, nil
}
