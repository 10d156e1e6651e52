package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/docktile/internal/config"
	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/persist"
	"github.com/1broseidon/docktile/internal/runtimepath"
)

// Options configures Run.
type Options struct {
	// ConfigPath is the config file; empty means the default location.
	ConfigPath string
	// SocketPath overrides the IPC socket location.
	SocketPath string
	// Watch enables config hot reload.
	Watch  bool
	Level  *slog.LevelVar
	Logger *slog.Logger
	// ReconcileInterval is the pause between drift checks; zero means
	// DefaultReconcileInterval.
	ReconcileInterval time.Duration
	// Ready is called once the IPC server accepts connections.
	Ready func(*Session)
}

// ShutdownTimeout bounds the final layout flush.
const ShutdownTimeout = 5 * time.Second

// Run loads the configuration, rehydrates the stored layout and serves IPC
// until ctx is cancelled. The pending layout is flushed on the way out.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	load := func() (*config.LoadResult, error) {
		if opts.ConfigPath != "" {
			return config.LoadFromPath(opts.ConfigPath)
		}
		return config.LoadWithSources()
	}

	res, err := load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := res.Config
	if opts.Level != nil {
		opts.Level.Set(cfg.SlogLevel())
	}

	reg, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("build view registry: %w", err)
	}
	adapter, store, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("open layout store: %w", err)
	}
	defer store.Close()

	fallback := func() layout.Node {
		root, err := cfg.DefaultTree(uuid.NewString)
		if err != nil {
			logger.Error("default layout is invalid", "layout", cfg.DefaultLayout, "error", err)
			return nil
		}
		return root
	}
	ws, report := persist.Rehydrate(ctx, adapter, reg.Has, fallback)
	switch {
	case report.Err != nil:
		logger.Warn("stored layout unusable, using default", "layout", cfg.DefaultLayout, "error", report.Err)
	case report.Dropped > 0:
		logger.Warn("dropped unknown views from stored layout", "count", report.Dropped)
	}
	logger.Info("layout ready", "source", report.Source, "groups", len(ws.Groups()),
		"backend", cfg.Storage.Backend, "codec", cfg.Storage.Codec)

	saver := persist.NewSaver(adapter, cfg.Debounce(), logger)
	session := NewSession(SessionConfig{
		Config:    cfg,
		Registry:  reg,
		Workspace: ws,
		Report:    report,
		Saver:     saver,
		Level:     opts.Level,
		Logger:    logger,
		Load: func() (*config.Config, error) {
			r, err := load()
			if err != nil {
				return nil, err
			}
			return r.Config, nil
		},
	})
	// A stored layout that repaired itself on load is written back.
	if report.Source == persist.SourceStored && report.Dropped > 0 {
		saver.Schedule(ws.Snapshot())
	}

	socketPath := opts.SocketPath
	if socketPath == "" {
		if socketPath, err = runtimepath.SocketPath(); err != nil {
			return fmt.Errorf("resolve IPC socket path: %w", err)
		}
	}
	server := ipc.NewServer(socketPath, session, logger)
	if err := server.Start(); err != nil {
		return err
	}

	reloadChan := make(chan struct{}, 1)
	var watcher *ConfigWatcher
	if opts.Watch && len(res.Files) > 0 {
		watcher, err = NewConfigWatcher(res.Files, 0, func() {
			select {
			case reloadChan <- struct{}{}:
			default:
			}
		}, logger)
		if err != nil {
			logger.Warn("config hot reload disabled", "error", err)
			watcher = nil
		}
	}

	rctx, stopReconciler := context.WithCancel(ctx)
	reconciled := make(chan struct{})
	go func() {
		defer close(reconciled)
		NewReconciler(session, opts.ReconcileInterval, logger).Run(rctx)
	}()

	if opts.Ready != nil {
		opts.Ready(session)
	}
	logger.Info("daemon started", "socket", socketPath)

	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-reloadChan:
			r, err := load()
			if err != nil {
				logger.Warn("config reload failed, keeping previous config", "error", err)
				continue
			}
			session.Apply(r.Config)
			if err := watcher.SetFiles(r.Files); err != nil {
				logger.Warn("config watcher update failed", "error", err)
			}
		}
	}
	logger.Info("daemon stopping")

	if watcher != nil {
		watcher.Close()
	}
	server.Stop()
	stopReconciler()
	<-reconciled

	flushCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := session.Close(flushCtx); err != nil {
		return fmt.Errorf("flush layout: %w", err)
	}
	writes, skipped := saver.Stats()
	logger.Info("daemon stopped", "writes", writes, "skipped", skipped)
	return nil
}
