package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"modelhostd/internal/capability"
	"modelhostd/internal/catalog"
	"modelhostd/internal/common/fsutil"
	"modelhostd/internal/config"
	"modelhostd/internal/devices"
	"modelhostd/internal/history"
	"modelhostd/internal/httpapi"
	"modelhostd/internal/manager"
	"modelhostd/internal/static"
	"modelhostd/internal/storage"
	"modelhostd/internal/watchdog"
)

const (
	shutdownTimeout = 5 * time.Second
	deviceCacheTTL  = 2 * time.Second
)

// newLogger writes console output on a terminal and JSON otherwise.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(lvl).With().Timestamp().Logger()
}

// expandPaths resolves "~" and fills defaults that depend on the data dir.
func expandPaths(cfg config.Config) (config.Config, error) {
	var err error
	expand := func(p *string) {
		if err == nil && *p != "" {
			*p, err = fsutil.ExpandHome(*p)
		}
	}
	expand(&cfg.DataDir)
	if cfg.DataDir == "" {
		return cfg, errors.New("data dir is required")
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(cfg.DataDir, "catalog.yaml")
	}
	if cfg.WatchdogDir == "" {
		cfg.WatchdogDir = filepath.Join(cfg.DataDir, "watchdog")
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = filepath.Join(cfg.DataDir, "history.db")
	}
	expand(&cfg.CatalogPath)
	expand(&cfg.WeightsDir)
	expand(&cfg.WatchdogDir)
	expand(&cfg.HistoryDB)
	return cfg, err
}

func newChecker(cfg config.Config, log zerolog.Logger) capability.Checker {
	checkers := []capability.Checker{}
	if cfg.WeightsDir != "" {
		checkers = append(checkers, capability.LocalWeights{Dir: cfg.WeightsDir})
	}
	if !cfg.Offline {
		checkers = append(checkers, capability.NewHubAccess(cfg.HubURL, cfg.HubToken, 0, log))
	}
	return capability.Any(checkers...)
}

// serveMain wires the collaborators, serves until ctx ends and shuts down.
func serveMain(ctx context.Context, cfg config.Config) error {
	log := newLogger(cfg.LogLevel)
	cfg, err := expandPaths(cfg)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info().Int("models", cat.Len()).Str("path", cfg.CatalogPath).Msg("catalog loaded")

	store, err := storage.Open(ctx, cfg.Storage, cfg.DataDir, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	hist, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	detector := devices.NewDetector(deviceCacheTTL, log.With().Str("component", "devices").Logger())
	writer, err := watchdog.NewWriter(cfg.WatchdogDir, cat, detector, log.With().Str("component", "watchdog").Logger())
	if err != nil {
		return err
	}
	notifier := manager.NewAsyncNotifier(writer, time.Duration(cfg.NotifyTimeoutSec)*time.Second, log)
	defer notifier.Close()

	mgrLog := log.With().Str("component", "manager").Logger()
	mgr, err := manager.Open(ctx, manager.ManagerConfig{
		Catalog:  cat,
		Checker:  newChecker(cfg, log),
		Store:    store,
		Notifier: notifier,
		Devices:  detector,
		History:  hist,
		Logger:   &mgrLog,
	})
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	// Bring the watchdog directory in line with the persisted state.
	_ = notifier.Notify(ctx, mgr.Snapshot())

	var ui http.Handler
	if len(cfg.StaticDirs) > 0 {
		res, err := static.New(cfg.StaticDirs, log)
		if err != nil {
			return err
		}
		ui = res
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Content-Type", "X-Log-Level"})
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr, ui),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("data_dir", cfg.DataDir).Bool("swagger", httpapi.SwaggerEnabled).Msg("modelhostd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("modelhostd stopped")
	return nil
}
