package shotbench

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/camerabench/captionkit/pkg/log"
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reviews, err := s.reviews.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BuildInfo(s.shotbench, s.refineshot, reviews))
}

const defaultPerPage = 50

type samplesResponse struct {
	Samples    []Sample `json:"samples"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	modality := query.Get("modality")
	category := query.Get("category")
	page := queryInt(query, "page", 0)
	if page < 0 {
		page = 0
	}
	perPage := queryInt(query, "per_page", defaultPerPage)
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	filtered := make([]Sample, 0, len(s.shotbench))
	for _, sample := range s.shotbench {
		if modality != "" && sample.Type() != modality {
			continue
		}
		if category != "" && sample.Category() != category {
			continue
		}
		filtered = append(filtered, sample)
	}

	total := len(filtered)
	start := page * perPage
	// start can wrap negative when page is absurdly large.
	if start < 0 || start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	pageSamples := make([]Sample, 0, end-start)
	for _, sample := range filtered[start:end] {
		review, err := s.reviews.Get(sample.Index())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		item := make(Sample, len(sample)+4)
		for key, value := range sample {
			item[key] = value
		}
		item["has_annotation"] = review != nil
		item["has_mistake"] = review.HasMistake()
		if review != nil {
			item["annotation_status"] = "reviewed"
		} else {
			item["annotation_status"] = "pending"
		}
		item["same_as_shotbench"] = SameAnswer(sample, s.rsByIndex[sample.Index()])
		pageSamples = append(pageSamples, item)
	}

	writeJSON(w, http.StatusOK, samplesResponse{
		Samples:    pageSamples,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

type mediaInfo struct {
	Path     string `json:"path"`
	Modality string `json:"modality"`
	HFURL    string `json:"hf_url"`
	LocalURL string `json:"local_url"`
	HasLocal bool   `json:"has_local"`
}

type sampleResponse struct {
	ShotBench  Sample    `json:"shotbench"`
	RefineShot Sample    `json:"refineshot"`
	Annotation *Review   `json:"annotation"`
	SameAnswer bool      `json:"same_as_shotbench"`
	Media      mediaInfo `json:"media"`
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	index, ok := indexParam(r.URL.Path, "/api/sample/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sample index")
		return
	}

	sample, ok := s.sbByIndex[index]
	if !ok {
		writeError(w, http.StatusNotFound, "sample not found")
		return
	}

	review, err := s.reviews.Get(index)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mediaPath := sample.Path()
	modality := sample.Type()
	if modality == "" {
		modality = "image"
	}

	hasLocal := false
	if s.mediaDir != "" && mediaPath != "" {
		_, err := os.Stat(filepath.Join(s.mediaDir, filepath.FromSlash(mediaPath)))
		hasLocal = err == nil
	}

	writeJSON(w, http.StatusOK, sampleResponse{
		ShotBench:  sample,
		RefineShot: s.rsByIndex[index],
		Annotation: review,
		SameAnswer: SameAnswer(sample, s.rsByIndex[index]),
		Media: mediaInfo{
			Path:     mediaPath,
			Modality: modality,
			HFURL:    s.hfBaseURL + "/" + mediaPath,
			LocalURL: "/media/" + mediaPath,
			HasLocal: hasLocal,
		},
	})
}

func (s *Server) handleAnnotation(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(r.URL.Path, "/api/annotation/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sample index")
		return
	}

	switch r.Method {
	case http.MethodGet:
		review, err := s.reviews.Get(index)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if review == nil {
			// The UI treats an empty object as "not reviewed yet".
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, review)
	case http.MethodPost:
		var review Review
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := s.reviews.Save(index, &review); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		log.Info("Saved review: sample_%d", index)
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
	reviews, err := s.reviews.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ComputeStats(s.shotbench, reviews))
}

func queryInt(query url.Values, key string, fallback int) int {
	raw := query.Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func indexParam(urlPath, prefix string) (int, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(urlPath, prefix), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return index, true
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
