// Command shotbench-viewer serves the ShotBench/RefineShot review UI over
// the two metadata files and a flat directory of review JSONs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/shotbench"
	"github.com/camerabench/captionkit/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	host := flag.String("host", cfg.Server.Host, "bind address")
	port := flag.Int("port", cfg.Server.Port, "listen port")
	dataDir := flag.String("data-dir", cfg.Data.DataDir, "directory with shotbench.json and refineshot.json")
	mediaDir := flag.String("media-dir", cfg.Data.MediaDir, "local media files to serve")
	annotationsDir := flag.String("annotations-dir", cfg.Data.AnnotationsDir, "review JSON root")
	staticDir := flag.String("static-dir", "static", "UI asset directory")
	noUI := flag.Bool("no-ui", false, "serve the API only")
	hfBaseURL := flag.String("hf-base-url", shotbench.DefaultHFBaseURL, "remote media base URL")
	flag.Parse()

	samples, err := shotbench.LoadSamples(filepath.Join(*dataDir, "shotbench.json"))
	if err != nil {
		log.Fatal("Failed to load shotbench data: %v", err)
	}
	refined, err := shotbench.LoadSamples(filepath.Join(*dataDir, "refineshot.json"))
	if err != nil {
		log.Fatal("Failed to load refineshot data: %v", err)
	}
	log.Info("Loaded %d shotbench samples, %d refineshot samples", len(samples), len(refined))

	reviews, err := shotbench.NewReviewStore(*annotationsDir)
	if err != nil {
		log.Fatal("Failed to open review store: %v", err)
	}

	server := shotbench.NewServer(samples, refined, reviews,
		shotbench.WithUI(*staticDir, !*noUI),
		shotbench.WithMediaDir(*mediaDir),
		shotbench.WithHFBaseURL(*hfBaseURL),
	)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	log.Info("ShotBench viewer listening on http://%s", addr)
	log.Info("Data: %s | Media: %s | Reviews: %s", *dataDir, *mediaDir, *annotationsDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown error: %v", err)
		}
	}
}
