package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camerabench/captionkit/internal/annotation"
)

func score(v float64) *float64 { return &v }
func index(i int) *int         { return &i }

func writeDataset(t *testing.T, root, name string, payload any) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0644))
}

func samplePayload() map[string]any {
	return map[string]any{
		"dataset_name": "camerabench",
		"split":        "test",
		"samples": []any{
			map[string]any{
				"video":    "clips/a.mp4",
				"captions": map[string]any{"single": "a man walks across the street"},
				"metadata": map[string]any{"duration": 5.5, "fps": 30.0},
			},
			map[string]any{
				"video": "clips/b.mp4",
				"captions": map[string]any{
					"structured": map[string]any{"camera": "a static shot", "subject": "two dogs"},
				},
				"metadata": map[string]any{"duration": 2.5},
			},
		},
	}
}

func TestListDatasets(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "camerabench", samplePayload())
	writeDataset(t, root, "aux", map[string]any{"samples": []any{}})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty_dir"), 0755))

	infos, err := ListDatasets(root)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "aux", infos[0].Name)
	assert.Equal(t, "camerabench", infos[1].Name)
	assert.Equal(t, []string{filepath.Join("camerabench", "camerabench.json")}, infos[1].JSONFiles)

	none, err := ListDatasets(filepath.Join(root, "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoadDataset(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "camerabench", samplePayload())

	ds, err := LoadDataset(root, "camerabench")
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Equal(t, "camerabench", ds.Name)
	assert.Equal(t, "test", ds.Split)
	require.Len(t, ds.Samples, 2)

	missing, err := LoadDataset(root, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSampleWordCount(t *testing.T) {
	tests := []struct {
		name     string
		captions map[string]any
		want     int
	}{
		{"single", map[string]any{"single": "one two three"}, 3},
		{"structured", map[string]any{"structured": map[string]any{"a": "x y", "b": "z"}}, 3},
		{
			"temporal",
			map[string]any{"temporal": []any{
				map[string]any{"caption": "pan left"},
				map[string]any{"content": "then tilt up slowly"},
			}},
			6,
		},
		{
			"multiple annotators nested",
			map[string]any{"multiple_annotators": []any{
				[]any{"first caption", "second one here"},
				"flat caption",
			}},
			7,
		},
		{"no captions", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := Sample{}
			if tt.captions != nil {
				sample["captions"] = tt.captions
			}
			assert.Equal(t, tt.want, sample.WordCount())
		})
	}
}

func TestCatalogLoadMergesAnnotationStatus(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "camerabench", samplePayload())

	store, err := annotation.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save("camerabench", 0, &annotation.Annotation{
		Overall: score(4), Camera: score(4), Subject: score(4),
		Motion: score(4), Scene: score(4), Spatial: score(4),
	}))

	catalog := NewCatalog(root, store, time.Minute)

	ds, err := catalog.Load("camerabench")
	require.NoError(t, err)
	require.Len(t, ds.Samples, 2)
	assert.Equal(t, "completed", ds.Samples[0]["annotation_status"])
	assert.Equal(t, "pending", ds.Samples[1]["annotation_status"])

	// A save after the payload is cached still shows up.
	require.NoError(t, store.Save("camerabench", 1, &annotation.Annotation{Overall: score(2)}))
	ds, err = catalog.Load("camerabench")
	require.NoError(t, err)
	assert.Equal(t, "incomplete", ds.Samples[1]["annotation_status"])

	missing, err := catalog.Load("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalogInvalidate(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "camerabench", samplePayload())

	store, err := annotation.NewStore(t.TempDir())
	require.NoError(t, err)
	catalog := NewCatalog(root, store, time.Hour)

	ds, err := catalog.Load("camerabench")
	require.NoError(t, err)
	require.Len(t, ds.Samples, 2)

	// Grow the dataset on disk; the cached payload hides it until invalidation.
	payload := samplePayload()
	payload["samples"] = append(payload["samples"].([]any), map[string]any{"video": "clips/c.mp4"})
	writeDataset(t, root, "camerabench", payload)

	ds, err = catalog.Load("camerabench")
	require.NoError(t, err)
	assert.Len(t, ds.Samples, 2)

	catalog.Invalidate()
	ds, err = catalog.Load("camerabench")
	require.NoError(t, err)
	assert.Len(t, ds.Samples, 3)
}

func TestComputeStats(t *testing.T) {
	payload := samplePayload()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	var ds Dataset
	require.NoError(t, json.Unmarshal(data, &ds))

	annotations := map[int]*annotation.Annotation{
		0: {
			Overall: score(4), Camera: score(5), Subject: score(3),
			Motion: score(4), Scene: score(5), Spatial: score(2),
			Segments: []annotation.Segment{
				{StartIndex: index(0), EndIndex: index(5)},
				{StartIndex: index(6), EndIndex: index(9)},
			},
		},
		1: {Overall: score(2)},
	}

	stats := ComputeStats(ds.Samples, annotations)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Incomplete)
	assert.Equal(t, 0, stats.Pending)

	require.NotNil(t, stats.AvgSegments)
	assert.InDelta(t, 2.0, *stats.AvgSegments, 1e-9)

	require.NotNil(t, stats.AvgScores["overall"])
	assert.InDelta(t, 3.0, *stats.AvgScores["overall"], 1e-9)
	require.NotNil(t, stats.AvgScores["camera"])
	assert.InDelta(t, 5.0, *stats.AvgScores["camera"], 1e-9)

	// All-bucket metadata: durations 5.5 and 2.5, fps only on sample 0.
	require.NotNil(t, stats.VideoStats.All.AvgDuration)
	assert.InDelta(t, 4.0, *stats.VideoStats.All.AvgDuration, 1e-9)
	require.NotNil(t, stats.VideoStats.All.AvgFPS)
	assert.InDelta(t, 30.0, *stats.VideoStats.All.AvgFPS, 1e-9)
	assert.Equal(t, 2, stats.VideoStats.All.SampleCount)

	// Completed bucket covers sample 0 only.
	assert.Equal(t, 1, stats.VideoStats.Completed.SampleCount)
	require.NotNil(t, stats.VideoStats.Completed.AvgDuration)
	assert.InDelta(t, 5.5, *stats.VideoStats.Completed.AvgDuration, 1e-9)
	require.NotNil(t, stats.VideoStats.Completed.AvgWords)
	assert.InDelta(t, 6.0, *stats.VideoStats.Completed.AvgWords, 1e-9)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := EmptyStats(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Nil(t, stats.AvgSegments)
	assert.Nil(t, stats.AvgScores["overall"])
	assert.Nil(t, stats.VideoStats.All.AvgDuration)
	assert.Equal(t, 0, stats.VideoStats.All.SampleCount)
}
