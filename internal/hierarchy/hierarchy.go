// Package hierarchy walks the camera label taxonomy on disk. Labels live
// under labels/{cam_motion,cam_setup} as nested directories of primitive
// JSON files; the directory path is the hierarchy.
package hierarchy

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/camerabench/captionkit/pkg/log"
)

// DefaultCollections are the two label trees shipped with the taxonomy.
var DefaultCollections = []string{"cam_motion", "cam_setup"}

// Primitive is one leaf label file. Only the first def_question/def_prompt
// entry is kept; the alternates are prompt-engineering variants the reports
// never use.
type Primitive struct {
	LabelName     string   `json:"label_name"`
	Label         string   `json:"label"`
	DefQuestion   string   `json:"def_question"`
	DefPrompt     string   `json:"def_prompt"`
	HierarchyPath []string `json:"hierarchy_path"`
	Filename      string   `json:"filename"`
	FullKey       string   `json:"full_key"`
}

type primitiveFile struct {
	LabelName   string   `json:"label_name"`
	Label       string   `json:"label"`
	DefQuestion []string `json:"def_question"`
	DefPrompt   []string `json:"def_prompt"`
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// WalkCollection extracts every primitive under <root>/<collection>, keyed
// by the dotted hierarchy key (e.g. "cam_motion.pan.pan_left"). A missing
// collection directory yields an empty map with a warning, matching how
// partial taxonomy checkouts are handled.
func WalkCollection(root, collection string) (map[string]Primitive, error) {
	collectionPath := filepath.Join(root, collection)
	if _, err := os.Stat(collectionPath); os.IsNotExist(err) {
		log.Warn("Label collection %s does not exist", collectionPath)
		return map[string]Primitive{}, nil
	}

	primitives := map[string]Primitive{}
	err := filepath.WalkDir(collectionPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		rel, err := filepath.Rel(collectionPath, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read primitive %s: %w", path, err)
		}
		var raw primitiveFile
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse primitive %s: %w", path, err)
		}

		dir := filepath.Dir(rel)
		var hierarchyPath []string
		if dir != "." {
			hierarchyPath = strings.Split(filepath.ToSlash(dir), "/")
		}
		filename := strings.TrimSuffix(d.Name(), ".json")

		keyParts := append([]string{collection}, hierarchyPath...)
		keyParts = append(keyParts, filename)
		fullKey := strings.Join(keyParts, ".")

		primitives[fullKey] = Primitive{
			LabelName:     raw.LabelName,
			Label:         raw.Label,
			DefQuestion:   first(raw.DefQuestion),
			DefPrompt:     first(raw.DefPrompt),
			HierarchyPath: hierarchyPath,
			Filename:      filename,
			FullKey:       fullKey,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return primitives, nil
}

// Extract walks every collection and merges the primitives into one map.
func Extract(root string, collections []string) (map[string]Primitive, error) {
	if len(collections) == 0 {
		collections = DefaultCollections
	}
	all := map[string]Primitive{}
	for _, collection := range collections {
		primitives, err := WalkCollection(root, collection)
		if err != nil {
			return nil, err
		}
		for key, primitive := range primitives {
			all[key] = primitive
		}
		log.Info("Found %d primitives in %s", len(primitives), collection)
	}
	return all, nil
}

// Entry is one primitive as it appears inside the organized hierarchy.
type Entry struct {
	FullKey     string `json:"full_key"`
	LabelName   string `json:"label_name"`
	DefQuestion string `json:"def_question"`
	DefPrompt   string `json:"def_prompt"`
}

// Hierarchy groups primitives by collection, then by aspect. Top-level
// primitives land under the "root" aspect; deeper nesting joins the
// intermediate directories with dots.
type Hierarchy map[string]map[string][]Entry

// Organize shapes the flat primitive map into collection/aspect groups.
// Entries within an aspect are sorted by full key for stable output.
func Organize(primitives map[string]Primitive) Hierarchy {
	hierarchy := Hierarchy{}
	for fullKey, primitive := range primitives {
		parts := strings.Split(fullKey, ".")
		collection := parts[0]

		var aspect string
		switch {
		case len(parts) == 2:
			aspect = "root"
		case len(parts) == 3:
			aspect = parts[1]
		default:
			aspect = strings.Join(parts[1:len(parts)-1], ".")
		}

		if hierarchy[collection] == nil {
			hierarchy[collection] = map[string][]Entry{}
		}
		hierarchy[collection][aspect] = append(hierarchy[collection][aspect], Entry{
			FullKey:     fullKey,
			LabelName:   primitive.LabelName,
			DefQuestion: primitive.DefQuestion,
			DefPrompt:   primitive.DefPrompt,
		})
	}

	for _, aspects := range hierarchy {
		for _, entries := range aspects {
			sort.Slice(entries, func(i, j int) bool { return entries[i].FullKey < entries[j].FullKey })
		}
	}
	return hierarchy
}

// NameToLabel maps the human-readable label name to its hierarchical key,
// e.g. "Pan Left" to "cam_motion.pan.pan_left". Duplicate names keep the
// last key seen (sorted order), with a warning.
func NameToLabel(primitives map[string]Primitive) map[string]string {
	keys := make([]string, 0, len(primitives))
	for key := range primitives {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	mapping := make(map[string]string, len(keys))
	for _, key := range keys {
		name := primitives[key].LabelName
		if name == "" {
			continue
		}
		if existing, ok := mapping[name]; ok {
			log.Warn("Duplicate label_name %q: %s and %s", name, existing, key)
		}
		mapping[name] = key
	}
	return mapping
}
