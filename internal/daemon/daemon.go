package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"litany/internal/artifacts"
	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/generation"
	"litany/internal/logging"
	"litany/internal/notifications"
	"litany/internal/pipeline"
	"litany/internal/process"
)

// Daemon coordinates the pipeline services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *process.Store
	bus      *events.Bus
	orch     *pipeline.Orchestrator
	notifier notifications.Service

	api *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StorePath    string
	LockFilePath string
	Processes    process.Summary
}

// New wires the full service from configuration: store, artifact store,
// generation clients, event bus, notification fan-out, and orchestrator.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := process.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open process store: %w", err)
	}
	store.SetLogger(logger)

	artifactStore, err := artifacts.New(cfg.ArtifactDir())
	if err != nil {
		store.Close()
		return nil, err
	}

	bus := events.NewBus(logger)

	notifier := notifications.NewService(cfg)
	notifications.NewDispatcher(cfg, notifier, logger).Register(bus)

	backends := pipeline.Backends{
		Text:      generation.NewTextClient(cfg.TextGen),
		Artifacts: artifactStore,
	}
	if cfg.Speech.Enabled {
		backends.Speech = generation.NewSpeechClient(cfg.Speech)
	}
	if cfg.Image.Enabled {
		backends.Image = generation.NewImageClient(cfg.Image)
	}

	orch := pipeline.New(cfg, store, bus, backends, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "litanyd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		bus:      bus,
		orch:     orch,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another litany daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	api, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}
	d.api = api
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("litany daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop drains the pipeline, stops the API, and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.orch.Shutdown(drainCtx); err != nil {
		d.logger.Warn("pipeline drain timed out", logging.Error(err))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("litany daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Orchestrator exposes the pipeline entry points to the API layer.
func (d *Daemon) Orchestrator() *pipeline.Orchestrator {
	return d.orch
}

// APIAddr returns the bound API address, empty when the API is not running.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// TestNotification sends a test push through the configured channel.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	summary, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("process stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StorePath:    d.store.Path(),
		LockFilePath: d.lockPath,
		Processes:    summary,
	}
}
