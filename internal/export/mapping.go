package export

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/camerabench/captionkit/pkg/log"
)

// BatchInfo ties a video back to the annotation batch sheet it was assigned
// from.
type BatchInfo struct {
	Sheet      string
	VideoIndex int
	FullURL    string
}

// BatchMapping maps video ids (URL basenames) to their batch sheet and
// position.
type BatchMapping map[string]BatchInfo

// LoadBatchMapping walks a directory of batch sheet files, each a JSON array
// of video URLs, and indexes every video by its URL basename. The sheet name
// is the file name without extension. Unreadable files are skipped with a
// warning.
func LoadBatchMapping(dir string) (BatchMapping, error) {
	mapping := make(BatchMapping)
	if dir == "" {
		return mapping, nil
	}

	var sheetFiles []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			sheetFiles = append(sheetFiles, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Batch mapping directory not found: %s", dir)
			return mapping, nil
		}
		return nil, err
	}
	sort.Strings(sheetFiles)

	for _, path := range sheetFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Error loading %s: %v", path, err)
			continue
		}

		var urls []string
		if err := json.Unmarshal(data, &urls); err != nil {
			log.Warn("Error parsing %s: %v", path, err)
			continue
		}

		sheet := strings.TrimSuffix(filepath.Base(path), ".json")
		for idx, url := range urls {
			if url == "" {
				continue
			}
			videoID := url
			if i := strings.LastIndex(url, "/"); i >= 0 {
				videoID = url[i+1:]
			}
			if videoID == "" {
				continue
			}
			mapping[videoID] = BatchInfo{
				Sheet:      sheet,
				VideoIndex: idx,
				FullURL:    url,
			}
		}
	}

	log.Info("Loaded batch mapping for %d videos from %d sheet files", len(mapping), len(sheetFiles))
	return mapping, nil
}

// Lookup resolves a video id, falling back to a substring match against the
// mapped full URLs when the exact basename is absent. The fallback scans
// sheets in sorted order so a given id always resolves the same way.
func (m BatchMapping) Lookup(videoID string) (BatchInfo, bool) {
	if info, ok := m[videoID]; ok {
		return info, true
	}
	if videoID == "" {
		return BatchInfo{}, false
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(m[key].FullURL, videoID) {
			return m[key], true
		}
	}
	return BatchInfo{}, false
}
