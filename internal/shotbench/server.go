package shotbench

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DefaultHFBaseURL is where the benchmark media lives when it has not been
// mirrored locally.
const DefaultHFBaseURL = "https://huggingface.co/datasets/Vchitect/ShotBench/resolve/main"

// Server pairs ShotBench and RefineShot samples by index and serves them to
// the review UI together with the saved reviews.
type Server struct {
	shotbench  []Sample
	refineshot []Sample
	sbByIndex  map[int]Sample
	rsByIndex  map[int]Sample
	reviews    *ReviewStore

	mediaDir  string
	hfBaseURL string

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

// WithMediaDir enables serving locally mirrored media under /media/.
func WithMediaDir(dir string) Option {
	return func(s *Server) {
		s.mediaDir = dir
	}
}

func WithHFBaseURL(baseURL string) Option {
	return func(s *Server) {
		s.hfBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func NewServer(shotbench, refineshot []Sample, reviews *ReviewStore, opts ...Option) *Server {
	s := &Server{
		shotbench:  shotbench,
		refineshot: refineshot,
		sbByIndex:  IndexSamples(shotbench),
		rsByIndex:  IndexSamples(refineshot),
		reviews:    reviews,
		hfBaseURL:  DefaultHFBaseURL,
		mux:        http.NewServeMux(),
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
	s.mux.HandleFunc("/api/info", s.handleInfo)
	s.mux.HandleFunc("/api/samples", s.handleSamples)
	s.mux.HandleFunc("/api/sample/", s.handleSample)
	s.mux.HandleFunc("/api/annotation/", s.handleAnnotation)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/media/", s.handleMedia)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.mediaDir == "" {
		writeError(w, http.StatusNotFound, "media serving is not configured")
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/media/")
	if rel == "" || strings.HasPrefix(rel, "..") {
		writeError(w, http.StatusBadRequest, "invalid media path")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.mediaDir, filepath.FromSlash(rel)))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
