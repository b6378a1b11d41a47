package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/camerabench/captionkit/internal/annotation"
	"github.com/camerabench/captionkit/internal/dataset"
)

// Server is the caption dataset viewer API. It serves dataset payloads,
// per-sample annotations and progress stats, plus the static viewer UI.
type Server struct {
	catalog     *dataset.Catalog
	annotations *annotation.Store

	videosDir string

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

// WithVideosDir enables local video serving under /videos/.
func WithVideosDir(dir string) Option {
	return func(s *Server) {
		s.videosDir = dir
	}
}

func NewServer(catalog *dataset.Catalog, annotations *annotation.Store, opts ...Option) *Server {
	s := &Server{
		catalog:     catalog,
		annotations: annotations,
		uiEnabled:   false,
		mux:         http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/datasets", s.handleListDatasets)
	s.mux.HandleFunc("/api/dataset/", s.handleDataset)
	s.mux.HandleFunc("/api/sample/", s.handleSample)
	s.mux.HandleFunc("/api/annotation/", s.handleAnnotation)
	s.mux.HandleFunc("/api/stats/", s.handleStats)
	s.mux.HandleFunc("/videos/", s.handleVideo)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.videosDir == "" {
		writeError(w, http.StatusNotFound, "video serving is not configured")
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/videos/")
	if rel == "" || strings.HasPrefix(rel, "..") {
		writeError(w, http.StatusBadRequest, "invalid video path")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.videosDir, filepath.FromSlash(rel)))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	// The annotation UI is edited in place during labeling sessions, so
	// never let the browser cache it.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
