package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/camerabench/captionkit/internal/annotation"
	"github.com/camerabench/captionkit/internal/dataset"
	"github.com/camerabench/captionkit/pkg/log"
)

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	infos, err := s.catalog.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := pathParam(r.URL.Path, "/api/dataset/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing dataset name")
		return
	}

	ds, err := s.catalog.Load(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ds == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type sampleResponse struct {
	Sample     dataset.Sample         `json:"sample"`
	Annotation *annotation.Annotation `json:"annotation"`
	Info       datasetInfo            `json:"dataset_info"`
}

type datasetInfo struct {
	Name         string `json:"name"`
	Split        string `json:"split"`
	TotalSamples int    `json:"total_samples"`
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name, index, ok := sampleParams(r.URL.Path, "/api/sample/")
	if !ok {
		writeError(w, http.StatusBadRequest, "expected /api/sample/{dataset}/{index}")
		return
	}

	ds, err := s.catalog.Load(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ds == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	if index < 0 || index >= len(ds.Samples) {
		writeError(w, http.StatusNotFound, "sample not found")
		return
	}

	a, err := s.annotations.Get(name, index)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sampleResponse{
		Sample:     ds.Samples[index],
		Annotation: a,
		Info: datasetInfo{
			Name:         ds.Name,
			Split:        ds.Split,
			TotalSamples: len(ds.Samples),
		},
	})
}

func (s *Server) handleAnnotation(w http.ResponseWriter, r *http.Request) {
	name, index, ok := sampleParams(r.URL.Path, "/api/annotation/")
	if !ok {
		writeError(w, http.StatusBadRequest, "expected /api/annotation/{dataset}/{index}")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a, err := s.annotations.Get(name, index)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		// Unannotated samples answer null so the UI starts blank.
		writeJSON(w, http.StatusOK, a)
	case http.MethodPost:
		var a annotation.Annotation
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := s.annotations.Save(name, index, &a); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Info("Saved annotation: %s/sample_%d", name, index)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Annotation saved",
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := pathParam(r.URL.Path, "/api/stats/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing dataset name")
		return
	}

	ds, err := s.catalog.Load(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ds == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}

	annotations, err := s.annotations.List(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dataset.ComputeStats(ds.Samples, annotations))
}

// pathParam extracts the single trailing segment after prefix.
func pathParam(urlPath, prefix string) string {
	param := strings.TrimSuffix(strings.TrimPrefix(urlPath, prefix), "/")
	if decoded, err := url.PathUnescape(param); err == nil {
		param = decoded
	}
	return param
}

// sampleParams parses /{dataset}/{index} after prefix.
func sampleParams(urlPath, prefix string) (string, int, bool) {
	rest := strings.TrimSuffix(strings.TrimPrefix(urlPath, prefix), "/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, false
	}
	name := parts[0]
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, false
	}
	return name, index, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
