package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listExport = `[
  {
    "video_id": "clip_001.mp4",
    "captions": {
      "camera": {
        "status": "approved",
        "caption_data": {
          "pre_caption": "The camera films at an eye-level angle.",
          "final_caption": "The camera films at a hip-level angle.",
          "final_feedback": "The angle is hip-level, not eye-level.",
          "feedback_is_needed": true,
          "user": "alice",
          "reviewer": "bob",
          "initial_caption_rating_score": 4
        },
        "insertion_error_critique": {
          "status": "success",
          "generated_critique": "Line one.\nLine two.",
          "revised_caption_by_generated_critique": "A revised caption."
        }
      },
      "subject": {
        "status": "pending",
        "caption_data": {
          "pre_caption": "A person walks.",
          "final_caption": "A person walks.",
          "final_feedback": "irrelevant"
        }
      }
    }
  },
  {
    "video_id": "clip_002.mp4",
    "captions": {
      "camera": {
        "status": "rejected",
        "caption_data": {
          "pre_caption": "Shot from an aerial angle above the field.",
          "final_caption": "Shot from an overhead angle above the field.",
          "final_feedback": "  ",
          "feedback_is_needed": true
        }
      },
      "scene": {
        "status": "approved",
        "caption_data": {
          "pre_caption": "A quiet street at night.",
          "final_caption": "A quiet street at night.",
          "final_feedback": "Looks perfect.",
          "feedback_is_needed": false
        }
      }
    }
  }
]`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "all_videos_with_captions_and_critiques_20251104.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadListFormat(t *testing.T) {
	path := writeExport(t, listExport)

	videos, err := Load(path)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "clip_001.mp4", videos[0].VideoID)

	camera := videos[0].Captions["camera"]
	assert.Equal(t, "approved", camera.Status)
	require.NotNil(t, camera.CaptionData)
	assert.Equal(t, "The angle is hip-level, not eye-level.", camera.CaptionData.FinalFeedback.String())

	critique, ok := camera.Critiques["insertion_error_critique"]
	require.True(t, ok)
	assert.True(t, critique.Succeeded())
	assert.Equal(t, "Line one.\nLine two.", critique.Generated)
}

func TestLoadDictFormat(t *testing.T) {
	dictExport := `{
      "clip_b.mp4": {"captions": {"camera": {"status": "approved"}}},
      "clip_a.mp4": {"captions": {"camera": {"status": "rejected"}}}
    }`
	path := writeExport(t, dictExport)

	videos, err := Load(path)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	// Dict form is flattened in id order.
	assert.Equal(t, "clip_a.mp4", videos[0].VideoID)
	assert.Equal(t, "clip_b.mp4", videos[1].VideoID)
}

func TestFlexStringTolerance(t *testing.T) {
	exportJSON := `[{"video_id": "v.mp4", "captions": {"camera": {
      "status": "approved",
      "caption_data": {"pre_caption": "p", "final_caption": "f", "final_feedback": null}
    }}}]`
	path := writeExport(t, exportJSON)

	videos, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", videos[0].Captions["camera"].CaptionData.FinalFeedback.String())
}

func TestFindConsolidated(t *testing.T) {
	dir := t.TempDir()

	_, err := FindConsolidated(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ConsolidatedPattern)

	path := filepath.Join(dir, "all_videos_with_captions_and_critiques_20251104.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	found, err := FindConsolidated(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestExtractStatistics(t *testing.T) {
	path := writeExport(t, listExport)
	videos, err := Load(path)
	require.NoError(t, err)

	stats := ExtractStatistics(videos, BatchMapping{})

	// clip_001/camera qualifies. clip_001/subject is pending,
	// clip_002/camera has blank feedback, clip_002/scene needed no feedback.
	require.Equal(t, 1, stats.TotalApprovedRejected)
	assert.Equal(t, 1, stats.Score4Count)

	sample := stats.AllSamples[0]
	assert.Equal(t, "clip_001.mp4", sample.VideoID)
	assert.Equal(t, "camera", sample.CaptionType)
	assert.Equal(t, "N/A", sample.Sheet)
	assert.Equal(t, -1, sample.VideoIndex)
}

func TestExtractStatisticsWithMapping(t *testing.T) {
	path := writeExport(t, listExport)
	videos, err := Load(path)
	require.NoError(t, err)

	mapping := BatchMapping{
		"clip_001.mp4": {Sheet: "overlap_0_to_94", VideoIndex: 17, FullURL: "https://cdn/clip_001.mp4"},
	}

	stats := ExtractStatistics(videos, mapping)
	require.Len(t, stats.AllSamples, 1)
	assert.Equal(t, "overlap_0_to_94", stats.AllSamples[0].Sheet)
	assert.Equal(t, 17, stats.AllSamples[0].VideoIndex)
}

func TestBatchMappingLookupFallback(t *testing.T) {
	mapping := BatchMapping{
		"a.mp4": {Sheet: "s1", VideoIndex: 0, FullURL: "https://cdn/videos/a.mp4?sig=xyz"},
	}

	info, ok := mapping.Lookup("a.mp4")
	require.True(t, ok)
	assert.Equal(t, "s1", info.Sheet)

	// Substring fallback against the full URL.
	info, ok = mapping.Lookup("videos/a.mp4")
	require.True(t, ok)
	assert.Equal(t, "s1", info.Sheet)

	_, ok = mapping.Lookup("missing.mp4")
	assert.False(t, ok)
}

func TestLoadBatchMapping(t *testing.T) {
	dir := t.TempDir()
	sheetDir := filepath.Join(dir, "20250227_batch")
	require.NoError(t, os.MkdirAll(sheetDir, 0755))

	sheet := `["https://cdn/videos/x.mp4", "https://cdn/videos/y.mp4"]`
	require.NoError(t, os.WriteFile(filepath.Join(sheetDir, "overlap_0_to_94.json"), []byte(sheet), 0644))

	mapping, err := LoadBatchMapping(dir)
	require.NoError(t, err)
	require.Len(t, mapping, 2)

	info, ok := mapping.Lookup("y.mp4")
	require.True(t, ok)
	assert.Equal(t, "overlap_0_to_94", info.Sheet)
	assert.Equal(t, 1, info.VideoIndex)
}

func TestCountWordChanges(t *testing.T) {
	tests := []struct {
		name  string
		pre   string
		final string
		want  int
	}{
		{"identical", "the camera pans left", "the camera pans left", 0},
		{"two word replace", "an eye-level angle", "a hip-level angle", 2},
		{"insert", "the camera pans", "the camera slowly pans", 1},
		{"delete", "the camera slowly pans", "the camera pans", 1},
		{"replace uneven", "one two three end", "x end", 3},
		{"both empty", "", "", 0},
		{"all new", "", "a b c", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWordChanges(tt.pre, tt.final))
		})
	}
}

func TestHasCameraPattern(t *testing.T) {
	tests := []struct {
		caption string
		want    bool
	}{
		{"The camera films at an Eye-Level Angle.", true},
		{"Shot from an aerial angle above the trees.", true},
		{"An underwater-level angle follows the diver.", true},
		{"The camera tilts upward slowly.", false},
		{"A wide shot of the mountains.", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HasCameraPattern(tt.caption), tt.caption)
	}
}

func TestExtractCameraSamples(t *testing.T) {
	path := writeExport(t, listExport)
	videos, err := Load(path)
	require.NoError(t, err)

	samples, total, stats := ExtractCameraSamples(videos, -1, 42, BatchMapping{})
	require.Equal(t, 1, total)
	assert.Equal(t, 1, stats.WithCameraPattern)

	// "an eye-level" -> "a hip-level" is a two word replacement.
	assert.Equal(t, 2, samples[0].NumChanges)
}

func TestSampleNDeterministic(t *testing.T) {
	samples := make([]Sample, 20)
	for i := range samples {
		samples[i].VideoID = string(rune('a' + i))
	}

	first := SampleN(samples, 5, 42)
	second := SampleN(samples, 5, 42)
	assert.Equal(t, first, second)

	different := SampleN(samples, 5, 7)
	assert.NotEqual(t, first, different)

	// Larger n than population keeps everything.
	all := SampleN(samples, 100, 42)
	assert.Len(t, all, 20)
}

func TestDetectCaptionTypes(t *testing.T) {
	videos := []Video{
		{Captions: map[string]CaptionEntry{"camera": {}, "subject": {}}},
		{Captions: map[string]CaptionEntry{"scene": {}}},
	}
	assert.Equal(t, []string{"camera", "scene", "subject"}, DetectCaptionTypes(videos))

	assert.Equal(t, DefaultCaptionTypes, DetectCaptionTypes(nil))
}
