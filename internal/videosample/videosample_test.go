package videosample

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLabels(t *testing.T, dir string, labels map[string]LabelVideos) string {
	t.Helper()
	data, err := json.Marshal(labels)
	require.NoError(t, err)
	path := filepath.Join(dir, "all_labels.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writeVideos(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("mp4 "+name), 0644))
	}
}

func TestOrganizeSmallLabels(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "videos")
	out := filepath.Join(tmp, "rare")
	writeVideos(t, src, "a.mp4", "b.mp4", "c.mp4")

	labelJSON := writeLabels(t, tmp, map[string]LabelVideos{
		"cam_motion.pan.pan_left": {Pos: []string{"a.mp4", "/full/path/b.mp4", "missing.mp4"}},
		"cam_motion.big_label":    {Pos: []string{"a.mp4", "b.mp4", "c.mp4"}},
		"cam_motion.empty":        {Pos: []string{}},
	})

	result, err := OrganizeSmallLabels(labelJSON, src, out, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProcessedLabels)
	assert.Equal(t, 2, result.CopiedVideos)
	assert.Equal(t, 1, result.MissingVideos)

	// Path-qualified entries are copied by basename.
	assert.FileExists(t, filepath.Join(out, "cam_motion.pan.pan_left", "a.mp4"))
	assert.FileExists(t, filepath.Join(out, "cam_motion.pan.pan_left", "b.mp4"))
	assert.NoDirExists(t, filepath.Join(out, "cam_motion.big_label"))
	assert.NoDirExists(t, filepath.Join(out, "cam_motion.empty"))
}

func TestBuildBenchmarkSample(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "videos")
	extra := filepath.Join(tmp, "filmai")
	out := filepath.Join(tmp, "benchmark")
	writeVideos(t, src, "p1.mp4", "p2.mp4", "p3.mp4", "n1.mp4", "n2.mp4")
	writeVideos(t, extra, "f1.mp4", "f2.mp4")

	labelJSON := writeLabels(t, tmp, map[string]LabelVideos{
		"cam_motion.has_shot_transition_cam_motion": {
			Pos: []string{"p1.mp4", "p2.mp4", "p3.mp4"},
			Neg: []string{"n1.mp4", "n2.mp4"},
		},
	})

	cfg := BenchmarkConfig{
		LabelJSON:  labelJSON,
		Label:      "cam_motion.has_shot_transition_cam_motion",
		SrcDir:     src,
		ExtraDir:   extra,
		OutDir:     out,
		CutCount:   2,
		NoCutCount: 2,
		ExtraCount: 5,
		Seed:       42,
	}

	result, err := BuildBenchmarkSample(cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Copied["camerabench_cut"])
	assert.Equal(t, 2, result.Copied["camerabench_no_cut"])
	// Extra pool is smaller than requested; everything gets copied.
	assert.Equal(t, 2, result.Copied["flim"])
	assert.Equal(t, 0, result.Missing)

	assert.FileExists(t, filepath.Join(out, "camerabench_no_cut", "n1.mp4"))
	assert.FileExists(t, filepath.Join(out, "flim", "f1.mp4"))

	// Same seed picks the same subset.
	out2 := filepath.Join(tmp, "benchmark2")
	cfg.OutDir = out2
	_, err = BuildBenchmarkSample(cfg)
	require.NoError(t, err)

	first, err := filepath.Glob(filepath.Join(out, "camerabench_cut", "*.mp4"))
	require.NoError(t, err)
	second, err := filepath.Glob(filepath.Join(out2, "camerabench_cut", "*.mp4"))
	require.NoError(t, err)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, filepath.Base(first[i]), filepath.Base(second[i]))
	}
}

func TestBuildBenchmarkSampleUnknownLabel(t *testing.T) {
	tmp := t.TempDir()
	labelJSON := writeLabels(t, tmp, map[string]LabelVideos{})

	_, err := BuildBenchmarkSample(BenchmarkConfig{LabelJSON: labelJSON, Label: "nope", ExtraDir: tmp, OutDir: tmp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
