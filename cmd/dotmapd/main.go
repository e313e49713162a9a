// Command dotmapd serves dot map rendering over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/geocode"
	"github.com/gogpu/dotmap/internal/config"
	"github.com/gogpu/dotmap/internal/logging"
	"github.com/gogpu/dotmap/internal/server"
)

// Version is set during build.
var Version = "dev"

func main() {
	configFile := flag.String("config", "", "config file (default: dotmap.yaml in . or ./configs)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	dotmap.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	var zips *geocode.Table
	if cfg.Geocode.Path != "" {
		if zips, err = geocode.Load(cfg.Geocode.Path, geocode.WithCodeColumn(cfg.Geocode.CodeColumn)); err != nil {
			return err
		}
	}

	srv := server.New(cat, zips, server.Options{
		MaxDots:       cfg.Server.MaxDots,
		DefaultFormat: cfg.Render.Format,
		MapOptions:    cfg.MapOptions(),
		ImageCache:    cfg.Server.ImageCache,
		BodyLimit:     cfg.Server.BodyLimit,
		Version:       Version,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening",
			"addr", cfg.Server.Addr,
			"maps", cat.Len(),
			"version", Version)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
