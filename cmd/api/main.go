package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natefinch/lumberjack"

	"dcpm/internal/config"
	"dcpm/internal/contextutil"
	"dcpm/internal/http"
	"dcpm/internal/library"
	"dcpm/internal/matcher"
	"dcpm/internal/metrics"
	"dcpm/internal/notes"
	"dcpm/internal/schedule"
	"dcpm/internal/service"
	"dcpm/internal/storage"
	"dcpm/internal/tagrules"
	"dcpm/internal/watch"
)

// General API information
//
// This API indexes a die-casting project library: project search, file tags,
// notes, and external resource folders matched to projects.
//
// ---
// info:
//   title: dcpm API
//   version: 1.0.0
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat, "file", cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(contextutil.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger builds the process logger. With LOG_FILE set, records go to
// stdout and a rotating file.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closeFn
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run(ctx context.Context, cfg *config.Config) error {
	rules, err := loadRules(cfg.TagCatalogPath)
	if err != nil {
		return err
	}

	m := metrics.New(true)

	store, fresh, err := openIndex(ctx, cfg, rules)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	slog.Info("Index opened", "path", store.Path(), "fts", store.FTSEnabled(), "fresh", fresh)
	if !store.FTSEnabled() {
		slog.Warn("Full-text search unavailable, falling back to substring matching; build with -tags sqlite_fts5")
	}
	unsubscribe := store.Subscribe(func(ev storage.Event) {
		slog.Debug("Index changed", "kind", ev.Kind, "project_id", ev.ProjectID, "path", ev.Path,
			"tag", ev.Tag, "resource_id", ev.ResourceID, "count", ev.Count)
	})
	defer unsubscribe()

	layout := library.NewLayout(cfg.LibraryRoot, cfg.ArchiveDirName, cfg.SystemDirName)
	scanner := library.NewScanner(layout, store, rules)
	resourceMatcher := matcher.New(store, matcher.Weights{
		Name:         cfg.MatchNameWeight,
		Customer:     cfg.MatchCustomerWeight,
		CustomerCode: cfg.MatchCustomerCodeBonus,
		PartNumber:   cfg.MatchPartNumberBonus,
		Threshold:    cfg.MatchThreshold,
	})
	renderer := notes.NewRenderer()

	svc := service.New(service.Config{
		Index:        store,
		Scanner:      scanner,
		Layout:       layout,
		Matcher:      resourceMatcher,
		Rules:        rules,
		Notes:        renderer,
		Metrics:      m,
		ExternalRoot: cfg.ExternalRoot,
	})
	defer svc.Close()

	// A new or recovered index is filled by a rebuild; an existing one only
	// needs to catch up with changes made while the server was down.
	trigger := svc.TriggerScan
	if fresh {
		trigger = svc.TriggerRebuild
	}
	job, err := trigger(ctx)
	if err != nil {
		return fmt.Errorf("failed to start initial index pass: %w", err)
	}
	slog.Info("Initial index pass started", "job_id", job.ID(), "kind", job.Kind())

	if cfg.WatchEnabled {
		watcher, err := watch.New(layout, scanner, watch.DefaultDelay)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() {
			_ = watcher.Stop()
		}()
		slog.Info("Library watcher started", "root", cfg.LibraryRoot)
	}

	if cfg.MatchInterval > 0 {
		if cfg.ExternalRoot == "" {
			slog.Warn("MATCH_INTERVAL is set but EXTERNAL_ROOT is empty, scheduled matching disabled")
		} else {
			sched, err := schedule.New(svc, cfg.MatchInterval)
			if err != nil {
				return err
			}
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer func() {
				_ = sched.Stop()
			}()
		}
	}

	router := http.NewRouter(&http.Deps{
		Facade:  svc,
		Health:  store,
		Notes:   renderer,
		Metrics: m,
	})
	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}

func loadRules(path string) (*tagrules.Engine, error) {
	if path == "" {
		return tagrules.Default(), nil
	}
	catalog, err := tagrules.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag catalog: %w", err)
	}
	rules, err := tagrules.New(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tag catalog: %w", err)
	}
	slog.Info("Tag catalog loaded", "path", path)
	return rules, nil
}

// openIndex opens the index under the library's system directory. An index
// with another schema version or a damaged file is removed and recreated.
// fresh reports whether the returned index starts out empty.
func openIndex(ctx context.Context, cfg *config.Config, rules *tagrules.Engine) (*storage.Store, bool, error) {
	path := storage.PathFor(cfg.LibraryRoot, cfg.SystemDirName)
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	opts := storage.Options{
		BusyTimeout: cfg.StoreBusyTimeout,
		ColorFor:    rules.ColorFor,
	}
	store, err := storage.Open(ctx, path, opts)
	if errors.Is(err, storage.ErrSchemaMismatch) || errors.Is(err, storage.ErrStoreCorrupt) {
		slog.Warn("Index unusable, recreating it", "path", path, "error", err)
		if rmErr := storage.Remove(path); rmErr != nil {
			return nil, false, rmErr
		}
		store, err = storage.Open(ctx, path, opts)
		fresh = true
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open index: %w", err)
	}
	return store, fresh, nil
}
