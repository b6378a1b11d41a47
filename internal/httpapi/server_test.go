package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camerabench/captionkit/internal/annotation"
	"github.com/camerabench/captionkit/internal/dataset"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *annotation.Store) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "camerabench")
	require.NoError(t, os.MkdirAll(dir, 0755))
	payload := map[string]any{
		"dataset_name": "camerabench",
		"split":        "test",
		"samples": []any{
			map[string]any{
				"video":    "clips/a.mp4",
				"captions": map[string]any{"single": "a man walks across the street"},
				"metadata": map[string]any{"duration": 5.5, "fps": 30.0},
			},
			map[string]any{
				"video":    "clips/b.mp4",
				"captions": map[string]any{"single": "two dogs"},
			},
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "camerabench.json"), data, 0644))

	store, err := annotation.NewStore(t.TempDir())
	require.NoError(t, err)
	catalog := dataset.NewCatalog(root, store, time.Minute)
	return NewServer(catalog, store, opts...), store
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

func TestServer_ListDatasets(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/datasets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []dataset.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "camerabench", infos[0].Name)
}

func TestServer_Dataset(t *testing.T) {
	srv, store := newTestServer(t)
	overall := 4.0
	require.NoError(t, store.Save("camerabench", 0, &annotation.Annotation{Overall: &overall}))

	rec := doRequest(t, srv, http.MethodGet, "/api/dataset/camerabench", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ds dataset.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	require.Len(t, ds.Samples, 2)
	assert.Equal(t, "incomplete", ds.Samples[0]["annotation_status"])
	assert.Equal(t, "pending", ds.Samples[1]["annotation_status"])

	rec = doRequest(t, srv, http.MethodGet, "/api/dataset/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Sample(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/sample/camerabench/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sample     map[string]any `json:"sample"`
		Annotation any            `json:"annotation"`
		Info       struct {
			Name         string `json:"name"`
			Split        string `json:"split"`
			TotalSamples int    `json:"total_samples"`
		} `json:"dataset_info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "clips/a.mp4", resp.Sample["video"])
	assert.Nil(t, resp.Annotation)
	assert.Equal(t, "camerabench", resp.Info.Name)
	assert.Equal(t, "test", resp.Info.Split)
	assert.Equal(t, 2, resp.Info.TotalSamples)

	rec = doRequest(t, srv, http.MethodGet, "/api/sample/camerabench/9", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/sample/camerabench/x", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AnnotationSaveAndGet(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/annotation/camerabench/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())

	body := []byte(`{"overall": 4, "camera": 5, "subject": 3, "motion": 4, "scene": 5, "spatial": 2, "annotator": "alice"}`)
	rec = doRequest(t, srv, http.MethodPost, "/api/annotation/camerabench/0", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Annotation saved")

	saved, err := store.Get("camerabench", 0)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "alice", saved.Annotator)
	assert.True(t, saved.IsComplete())

	rec = doRequest(t, srv, http.MethodGet, "/api/annotation/camerabench/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")

	rec = doRequest(t, srv, http.MethodPost, "/api/annotation/camerabench/0", []byte("{broken"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/annotation/camerabench/0", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Stats(t *testing.T) {
	srv, store := newTestServer(t)
	score := func(v float64) *float64 { return &v }
	require.NoError(t, store.Save("camerabench", 0, &annotation.Annotation{
		Overall: score(4), Camera: score(5), Subject: score(3),
		Motion: score(4), Scene: score(5), Spatial: score(2),
	}))

	rec := doRequest(t, srv, http.MethodGet, "/api/stats/camerabench", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats dataset.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	require.NotNil(t, stats.AvgScores["overall"])
	assert.InDelta(t, 4.0, *stats.AvgScores["overall"], 1e-9)
	assert.Equal(t, 2, stats.VideoStats.All.SampleCount)
	assert.Equal(t, 1, stats.VideoStats.Completed.SampleCount)
}

func TestServer_Videos(t *testing.T) {
	videos := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(videos, "a.mp4"), []byte("not really a video"), 0644))

	srv, _ := newTestServer(t, WithVideosDir(videos))

	rec := doRequest(t, srv, http.MethodGet, "/videos/a.mp4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not really a video", rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/videos/missing.mp4", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_VideosNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/videos/a.mp4", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StaticNoStore(t *testing.T) {
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>viewer</html>"), 0644))

	srv, _ := newTestServer(t, WithUI(staticDir, true))

	rec := doRequest(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "viewer")
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestServer_StaticDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
