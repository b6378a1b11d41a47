package shotbench

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapField(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"plain string", "image/x.jpg", "image/x.jpg"},
		{"stringified single quotes", "['image/x.jpg']", "image/x.jpg"},
		{"stringified double quotes", `["video/y.mp4"]`, "video/y.mp4"},
		{"stringified unquoted", "[image/x.jpg]", "image/x.jpg"},
		{"json list", []any{"image/x.jpg", "ignored"}, "image/x.jpg"},
		{"empty list", []any{}, ""},
		{"nil", nil, ""},
		{"whitespace", "  image/x.jpg  ", "image/x.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapField(tt.value))
		})
	}
}

func TestLoadSamplesSanitizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shotbench.json")
	payload := `[
		{"index": 1, "type": "['image']", "path": "['image/a.jpg']", "category": "shot size"},
		{"index": 2, "type": "video", "path": "video/b.mp4", "category": "camera angle"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	samples, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "image", samples[0].Type())
	assert.Equal(t, "image/a.jpg", samples[0].Path())
	assert.Equal(t, 1, samples[0].Index())

	missing, err := LoadSamples(filepath.Join(dir, "refineshot.json"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSameAnswer(t *testing.T) {
	sb := Sample{
		"options": map[string]any{"A": "Eye Level", "B": "Low Angle"},
		"answer":  "A",
	}
	same := Sample{
		"options": map[string]any{"A": "Eye Level", "B": "Low Angle"},
		"answer":  "A",
	}
	refined := Sample{
		"options": map[string]any{"A": "Eye Level", "B": "High Angle"},
		"answer":  "B",
	}

	assert.True(t, SameAnswer(sb, same))
	assert.False(t, SameAnswer(sb, refined))
	assert.True(t, SameAnswer(sb, nil))
}

func TestReviewExtraRoundTrip(t *testing.T) {
	payload := []byte(`{
		"sample_index": 3,
		"shotbench_mistake": true,
		"shotbench_mistake_type": "wrong_answer",
		"ui_state": {"tab": "refineshot"}
	}`)

	var review Review
	require.NoError(t, json.Unmarshal(payload, &review))
	assert.True(t, review.ShotBenchMistake)
	assert.True(t, review.HasMistake())
	require.Contains(t, review.Extra, "ui_state")

	out, err := json.Marshal(&review)
	require.NoError(t, err)
	var roundTripped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	assert.Contains(t, roundTripped, "ui_state")
	assert.Contains(t, roundTripped, "shotbench_mistake")
}

func TestReviewStore(t *testing.T) {
	store, err := NewReviewStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(1, &Review{ShotBenchMistake: true}))
	require.NoError(t, store.Save(7, &Review{Notes: "looks fine"}))

	got, err = store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	// The index is stamped on save.
	assert.Equal(t, 1, got.SampleIndex)
	assert.True(t, got.ShotBenchMistake)

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[7].HasMistake())
}

func testSamples() []Sample {
	return []Sample{
		{"index": float64(1), "type": "image", "path": "image/a.jpg", "category": "shot size",
			"options": map[string]any{"A": "Close Up"}, "answer": "A"},
		{"index": float64(2), "type": "image", "path": "image/b.jpg", "category": "camera angle",
			"options": map[string]any{"A": "Eye Level"}, "answer": "A"},
		{"index": float64(3), "type": "video", "path": "video/c.mp4", "category": "shot size",
			"options": map[string]any{"A": "Medium Wide"}, "answer": "A"},
	}
}

func TestComputeStats(t *testing.T) {
	reviews := map[int]*Review{
		1: {ShotBenchMistake: true, ShotBenchMistakeType: "wrong_answer"},
		3: {RefineShotMistake: true, RefineShotMistakeType: "ambiguous"},
	}

	stats := ComputeStats(testSamples(), reviews)

	assert.Equal(t, 3, stats.Overall.TotalSamples)
	assert.Equal(t, 2, stats.Overall.TotalReviewed)
	assert.Equal(t, 1, stats.Overall.Pending)
	assert.Equal(t, 1, stats.Overall.SBMistakes)
	assert.Equal(t, 1, stats.Overall.RSMistakes)

	shotSize := stats.ByCategory["shot size"]
	require.NotNil(t, shotSize)
	assert.Equal(t, 2, shotSize.Total)
	assert.Equal(t, 2, shotSize.Reviewed)
	assert.Equal(t, 1, shotSize.SBMistakes)
	assert.Equal(t, 1, shotSize.RSMistakes)

	imageShotSize := stats.ByCategoryModality["image_shot size"]
	require.NotNil(t, imageShotSize)
	assert.Equal(t, 1, imageShotSize.Total)

	assert.Equal(t, 1, stats.SBMistakeTypes["wrong_answer"])
	assert.Equal(t, 1, stats.RSMistakeTypes["ambiguous"])
}

func TestBuildInfo(t *testing.T) {
	samples := testSamples()
	samples = append(samples, Sample{"index": float64(4), "type": "image", "category": "bokeh"})
	reviews := map[int]*Review{
		1: {ShotBenchMistake: true},
		2: {},
	}

	info := BuildInfo(samples, samples[:1], reviews)

	assert.Equal(t, 4, info.ShotBench.Total)
	assert.Equal(t, 3, info.ShotBench.ByModality["image"])
	assert.Equal(t, 2, info.ShotBench.ByCategory["shot size"])
	assert.True(t, info.RefineShot.Available)
	assert.Equal(t, 2, info.Annotations.Total)
	assert.Equal(t, 1, info.Annotations.WithMistakes)
	// Canonical order first, unexpected categories appended.
	assert.Equal(t, []string{"shot size", "camera angle", "bokeh"}, info.Categories)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *ReviewStore) {
	t.Helper()
	store, err := NewReviewStore(t.TempDir())
	require.NoError(t, err)

	refined := Sample{
		"index":   float64(2),
		"type":    "image",
		"path":    "image/b.jpg",
		"options": map[string]any{"A": "Eye Level", "B": "High Angle"},
		"answer":  "B",
	}
	return NewServer(testSamples(), []Sample{refined}, store, opts...), store
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Info(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Save(1, &Review{ShotBenchMistake: true}))

	rec := doRequest(t, srv, http.MethodGet, "/api/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 3, info.ShotBench.Total)
	assert.True(t, info.RefineShot.Available)
	assert.Equal(t, 1, info.Annotations.WithMistakes)
	assert.Equal(t, "SS", info.CategoryAbbrevs["shot size"])
}

func TestServer_SamplesFilterAndPaginate(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Save(1, &Review{ShotBenchMistake: true}))

	rec := doRequest(t, srv, http.MethodGet, "/api/samples?modality=image", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp samplesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Samples, 2)
	assert.Equal(t, "reviewed", resp.Samples[0]["annotation_status"])
	assert.Equal(t, true, resp.Samples[0]["has_mistake"])
	assert.Equal(t, "pending", resp.Samples[1]["annotation_status"])
	// Sample 2 got different options in RefineShot.
	assert.Equal(t, true, resp.Samples[0]["same_as_shotbench"])
	assert.Equal(t, false, resp.Samples[1]["same_as_shotbench"])

	rec = doRequest(t, srv, http.MethodGet, "/api/samples?page=1&per_page=2", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Samples, 1)

	rec = doRequest(t, srv, http.MethodGet, "/api/samples?category=camera+angle", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestServer_SamplesNegativePage(t *testing.T) {
	srv, _ := newTestServer(t)

	// A "previous page" underflow in the UI sends page=-1; treat it as
	// the first page rather than slicing out of range.
	rec := doRequest(t, srv, http.MethodGet, "/api/samples?page=-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp samplesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Page)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Samples, 3)

	// Past-the-end and overflowing pages come back empty, not as errors.
	rec = doRequest(t, srv, http.MethodGet, "/api/samples?page=9999999999999999", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Samples)
}

func TestServer_Sample(t *testing.T) {
	media := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(media, "image"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(media, "image", "b.jpg"), []byte("jpg"), 0644))

	srv, _ := newTestServer(t, WithMediaDir(media))

	rec := doRequest(t, srv, http.MethodGet, "/api/sample/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ShotBench  map[string]any `json:"shotbench"`
		RefineShot map[string]any `json:"refineshot"`
		Annotation any            `json:"annotation"`
		SameAnswer bool           `json:"same_as_shotbench"`
		Media      mediaInfo      `json:"media"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "image/b.jpg", resp.ShotBench["path"])
	assert.Equal(t, "B", resp.RefineShot["answer"])
	assert.Nil(t, resp.Annotation)
	assert.False(t, resp.SameAnswer)
	assert.Equal(t, DefaultHFBaseURL+"/image/b.jpg", resp.Media.HFURL)
	assert.Equal(t, "/media/image/b.jpg", resp.Media.LocalURL)
	assert.True(t, resp.Media.HasLocal)

	rec = doRequest(t, srv, http.MethodGet, "/api/sample/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/sample/x", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AnnotationSaveAndGet(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/annotation/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())

	body := []byte(`{"shotbench_mistake": true, "shotbench_mistake_type": "wrong_answer", "notes": "answer should be C"}`)
	rec = doRequest(t, srv, http.MethodPost, "/api/annotation/1", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Annotation saved")

	saved, err := store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 1, saved.SampleIndex)
	assert.Equal(t, "wrong_answer", saved.ShotBenchMistakeType)

	rec = doRequest(t, srv, http.MethodGet, "/api/annotation/1", nil)
	assert.Contains(t, rec.Body.String(), "answer should be C")

	rec = doRequest(t, srv, http.MethodPost, "/api/annotation/1", []byte("{broken"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Stats(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Save(1, &Review{ShotBenchMistake: true, ShotBenchMistakeType: "wrong_answer"}))

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Overall.TotalSamples)
	assert.Equal(t, 1, stats.Overall.SBMistakes)
	assert.Equal(t, 1, stats.SBMistakeTypes["wrong_answer"])
}

func TestServer_Media(t *testing.T) {
	media := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(media, "a.jpg"), []byte("jpg bytes"), 0644))

	srv, _ := newTestServer(t, WithMediaDir(media))

	rec := doRequest(t, srv, http.MethodGet, "/media/a.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpg bytes", rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/media/missing.jpg", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	srvNoMedia, _ := newTestServer(t)
	rec = doRequest(t, srvNoMedia, http.MethodGet, "/media/a.jpg", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
