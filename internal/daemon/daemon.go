package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/magcho/vtrpon/internal/api"
	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/conversion"
	"github.com/magcho/vtrpon/internal/deps"
	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/media/ffprobe"
	"github.com/magcho/vtrpon/internal/notifications"
	"github.com/magcho/vtrpon/internal/playlist"
	"github.com/magcho/vtrpon/internal/slideshow"
	"github.com/magcho/vtrpon/internal/thumbnail"
	"github.com/magcho/vtrpon/internal/watch"
)

// Options override collaborators and surfaces. Zero values use the
// configured implementations.
type Options struct {
	Converter   conversion.Converter
	Prober      conversion.Prober
	Thumbnailer conversion.Thumbnailer
	Notifier    notifications.Service
	// DisableAPI skips the HTTP/websocket server.
	DisableAPI bool
	// DisableWatch skips the drop-folder watcher even when a watch dir is configured.
	DisableWatch bool
}

// Daemon owns the playlist and every component that changes it.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *playlist.SQLiteStore
	coord    *conversion.Coordinator
	hub      *api.Hub
	server   *api.Server
	watcher  *watch.Watcher
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running           bool
	PID               int
	PlaylistDBPath    string
	LockFilePath      string
	WatchDir          string
	ActiveConversions int
	Counts            map[string]int
	Dependencies      []deps.Status
}

// New opens the playlist store and constructs every component. Nothing runs
// until Start.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := playlist.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open playlist store: %w", err)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		notifier: opts.Notifier,
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}

	converter := opts.Converter
	if converter == nil {
		pipeline, err := slideshow.NewPipeline(cfg, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("build converter: %w", err)
		}
		converter = pipeline
	}
	prober := opts.Prober
	if prober == nil {
		prober = ffprobe.NewProber(cfg.Probe.FFprobeBinary, cfg.ProbeTimeout(), logger)
	}
	thumbnailer := opts.Thumbnailer
	if thumbnailer == nil {
		thumbnailer = thumbnail.NewGenerator(cfg, logger)
	}

	d.hub = api.NewHub(logger)
	d.coord, err = conversion.New(conversion.Dependencies{
		Store:       store,
		Converter:   converter,
		Prober:      prober,
		Thumbnailer: thumbnailer,
		Refresher:   d.hub,
		Alerter:     conversion.Alerters{d.hub, conversion.AlertFunc(d.logAlert)},
		Notifier:    d.notifier,
		Logger:      logger,
	}, conversion.Options{
		Timeout:       cfg.ConversionTimeout(),
		MaxConcurrent: cfg.Playlist.MaxConcurrent,
		AlertDuration: cfg.AlertDuration(),
		Accept:        slideshow.IsPresentation,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if !opts.DisableAPI {
		d.server, err = api.NewServer(api.ServerOptions{
			Bind:       cfg.API.Bind,
			Token:      cfg.API.Token,
			Controller: d.coord,
			Hub:        d.hub,
			Status:     d.apiStatus,
			Logger:     logger,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	if !opts.DisableWatch && strings.TrimSpace(cfg.Paths.WatchDir) != "" {
		d.watcher, err = watch.New(watch.Options{
			Dir:      cfg.Paths.WatchDir,
			Debounce: cfg.WatchDebounce(),
			Accept:   slideshow.IsPresentation,
			Adder:    d.coord,
			Logger:   logger,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return d, nil
}

// Start acquires the daemon lock, starts serving, and resumes interrupted
// conversions when configured to.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vtrpon daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if d.server != nil {
		if err := d.server.Start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start api: %w", err)
		}
	}
	if d.watcher != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.watcher.Run(runCtx); err != nil {
				logging.ErrorWithContext(d.logger, "drop folder watcher stopped", "watch_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check that the watch directory exists and is readable"),
				)
			}
		}()
	}
	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)

	if d.cfg.Playlist.ResumeOnStartup {
		if _, err := d.coord.Resume(runCtx); err != nil {
			logging.WarnWithContext(d.logger, "resume of interrupted conversions failed", "resume_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "entries stay converting until retried"),
			)
		}
	}

	d.logger.Info("vtrpon daemon started", logging.String("lock", d.lockPath), logging.String("api", d.Addr()))
	return nil
}

// Stop cancels background work, waits for it, and releases the lock.
// Conversions in progress stay converting in the store.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.coord.Shutdown()
	if d.server != nil {
		d.server.Stop()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vtrpon daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.coord.Shutdown()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Coordinator exposes playlist operations for in-process callers.
func (d *Daemon) Coordinator() *conversion.Coordinator {
	return d.coord
}

// Notifier returns the configured push notification service.
func (d *Daemon) Notifier() notifications.Service {
	return d.notifier
}

// Addr returns the API listen address, or "" when the API is disabled.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:           d.running.Load(),
		PID:               os.Getpid(),
		PlaylistDBPath:    d.store.Path(),
		LockFilePath:      d.lockPath,
		WatchDir:          d.cfg.Paths.WatchDir,
		ActiveConversions: len(d.coord.Active()),
		Dependencies:      deps.Check(d.cfg),
	}
	if d.watcher == nil {
		status.WatchDir = ""
	}
	entries, err := d.store.All(ctx)
	if err != nil {
		d.logger.Warn("status: playlist unavailable", logging.Error(err))
	}
	status.Counts = api.CountStates(entries)
	return status
}

func (d *Daemon) apiStatus(ctx context.Context) api.Status {
	status := d.Status(ctx)
	out := api.Status{
		Running:           status.Running,
		PID:               status.PID,
		PlaylistDBPath:    status.PlaylistDBPath,
		LockFilePath:      status.LockFilePath,
		WatchDir:          status.WatchDir,
		ActiveConversions: status.ActiveConversions,
		Counts:            status.Counts,
		Dependencies:      make([]api.DependencyStatus, len(status.Dependencies)),
	}
	for i, dep := range status.Dependencies {
		out.Dependencies[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// logAlert records operator alerts in the log so headless runs still see them.
func (d *Daemon) logAlert(ctx context.Context, alert conversion.Alert) {
	logging.WithContext(logging.WithEntryID(ctx, alert.EntryID), d.logger).Warn(alert.Message,
		logging.Alert(alert.Level),
		logging.Duration("display_for", alert.Duration),
	)
}
