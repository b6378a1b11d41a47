package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camerabench/captionkit/internal/config"
)

func TestSplitCollections(t *testing.T) {
	assert.Equal(t, []string{"cam_motion", "cam_setup"}, splitCollections(""))
	assert.Equal(t, []string{"cam_motion"}, splitCollections("cam_motion"))
	assert.Equal(t, []string{"a", "b"}, splitCollections(" a , b ,"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("12345678-90ab-cdef"))
}

func TestDetectRejectsNegativeSampleCount(t *testing.T) {
	err := runDetect(&config.Config{}, []string{"--detector", "camera-nitpick", "--sample-count", "-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sample-count")
}

func TestSampleVideosRejectsNegativeCounts(t *testing.T) {
	err := runSampleVideos(&config.Config{}, []string{
		"--label-json", "labels.json", "--src-dir", "videos", "--cut-count", "-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mapping.json")
	require.NoError(t, writeJSONFile(path, map[string]string{"Pan Left": "has_pan_left"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "has_pan_left")
}
