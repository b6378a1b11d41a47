// Package shotbench serves a side-by-side review of ShotBench and RefineShot
// benchmark samples so annotators can flag labeling mistakes in either set.
package shotbench

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// Categories in canonical display order. These match the category values in
// the dataset files, not the display names.
var Categories = []string{
	"shot size", "shot framing", "camera angle", "lens size",
	"lighting type", "lighting", "composition", "camera movement",
}

var CategoryAbbrevs = map[string]string{
	"shot size":       "SS",
	"shot framing":    "SF",
	"camera angle":    "CA",
	"lens size":       "LS",
	"lighting type":   "LT",
	"lighting":        "LC",
	"composition":     "SC",
	"camera movement": "CM",
}

// The raw data says "lighting" where the paper says "Lighting Condition".
var CategoryDisplayNames = map[string]string{
	"shot size":       "Shot Size",
	"shot framing":    "Shot Framing",
	"camera angle":    "Camera Angle",
	"lens size":       "Lens Size",
	"lighting type":   "Lighting Type",
	"lighting":        "Lighting Condition",
	"composition":     "Composition",
	"camera movement": "Camera Movement",
}

// Sample is one benchmark entry, kept schema-free so the viewer can pass it
// through verbatim.
type Sample map[string]any

func (s Sample) Index() int {
	if v, ok := s["index"].(float64); ok {
		return int(v)
	}
	return -1
}

func (s Sample) Type() string     { return stringField(s, "type") }
func (s Sample) Category() string { return stringField(s, "category") }
func (s Sample) Path() string     { return stringField(s, "path") }

func stringField(s Sample, key string) string {
	v, _ := s[key].(string)
	return v
}

// SameAnswer reports whether the RefineShot variant kept the same options and
// answer as the ShotBench original.
func SameAnswer(sb, rs Sample) bool {
	if rs == nil {
		return true
	}
	return reflect.DeepEqual(sb["options"], rs["options"]) && sb["answer"] == rs["answer"]
}

// UnwrapField normalizes a field that may be stored as a stringified list,
// e.g. "['image/x.jpg']" becomes "image/x.jpg". Some export runs wrote the
// path and type columns that way.
func UnwrapField(value any) string {
	if value == nil {
		return ""
	}
	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		return UnwrapField(list[0])
	}

	text, ok := value.(string)
	if !ok {
		text = fmt.Sprintf("%v", value)
	}
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		inner := strings.TrimSpace(text[1 : len(text)-1])
		for _, quote := range []string{"'", `"`} {
			if strings.HasPrefix(inner, quote) && strings.HasSuffix(inner, quote) && len(inner) >= 2 {
				return inner[1 : len(inner)-1]
			}
		}
		return inner
	}
	return text
}

// LoadSamples reads a dataset file, sanitizing path and type fields. A
// missing file yields an empty slice; RefineShot is optional.
func LoadSamples(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Sample{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	for _, sample := range samples {
		if _, ok := sample["path"]; ok {
			sample["path"] = UnwrapField(sample["path"])
		}
		if _, ok := sample["type"]; ok {
			sample["type"] = UnwrapField(sample["type"])
		}
	}
	return samples, nil
}

// IndexSamples builds the index lookup used for pairing the two datasets.
func IndexSamples(samples []Sample) map[int]Sample {
	byIndex := make(map[int]Sample, len(samples))
	for _, sample := range samples {
		byIndex[sample.Index()] = sample
	}
	return byIndex
}
