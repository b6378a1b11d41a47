// Command caption-viewer serves the caption annotation UI: local datasets,
// per-sample annotations and the video files behind them.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/camerabench/captionkit/internal/annotation"
	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/dataset"
	"github.com/camerabench/captionkit/internal/httpapi"
	"github.com/camerabench/captionkit/pkg/icron"
	"github.com/camerabench/captionkit/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	host := flag.String("host", cfg.Server.Host, "bind address")
	port := flag.Int("port", cfg.Server.Port, "listen port")
	datasetsDir := flag.String("datasets-dir", cfg.Data.DatasetsDir, "local datasets root")
	annotationsDir := flag.String("annotations-dir", cfg.Data.AnnotationsDir, "annotation JSON root")
	videosDir := flag.String("videos-dir", cfg.Data.VideosDir, "local video files to serve")
	staticDir := flag.String("static-dir", "static", "UI asset directory")
	noUI := flag.Bool("no-ui", false, "serve the API only")
	cacheTTL := flag.Duration("cache-ttl", time.Minute, "dataset cache TTL")
	flag.Parse()

	annotations, err := annotation.NewStore(*annotationsDir)
	if err != nil {
		log.Fatal("Failed to open annotation store: %v", err)
	}
	catalog := dataset.NewCatalog(*datasetsDir, annotations, *cacheTTL)

	server := httpapi.NewServer(catalog, annotations,
		httpapi.WithUI(*staticDir, !*noUI),
		httpapi.WithVideosDir(*videosDir),
	)

	refreshExpr := cfg.Server.RefreshCron
	if err := icron.Validate(refreshExpr); err != nil {
		log.Fatal("Bad REFRESH_CRON %q: %v", refreshExpr, err)
	}
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(refreshExpr, func() {
		catalog.Invalidate()
		log.Debug("Dataset cache invalidated")
	}); err != nil {
		log.Fatal("Failed to schedule cache refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	log.Info("Caption viewer listening on http://%s", addr)
	log.Info("Datasets: %s | Annotations: %s | Videos: %s", *datasetsDir, *annotationsDir, *videosDir)
	if info, err := icron.GetTriggerInfo(refreshExpr, time.Now()); err == nil {
		log.Info("Dataset cache refresh %q, next at %s", refreshExpr, info.Next.Format(time.RFC3339))
	}

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
