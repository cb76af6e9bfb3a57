package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/playlist"
)

// Adder receives settled presentations. Dropped files carry no per-deck
// slide time, so the watcher always passes an empty one.
type Adder interface {
	Add(ctx context.Context, sourcePath, slideSeconds string) (playlist.Entry, error)
}

// Options configure a Watcher.
type Options struct {
	Dir      string
	Debounce time.Duration
	// Accept filters candidate files. Nil accepts everything.
	Accept func(path string) bool
	Adder  Adder
	Logger *slog.Logger
}

// Watcher monitors one directory for new presentations.
type Watcher struct {
	dir      string
	debounce time.Duration
	accept   func(string) bool
	adder    Adder
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingFile
	handled map[string]fileStamp
	wg      sync.WaitGroup
	ready   chan struct{}
}

type pendingFile struct {
	timer *time.Timer
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// New validates options. The directory is created when missing.
func New(opts Options) (*Watcher, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("watch: directory required")
	}
	if opts.Adder == nil {
		return nil, errors.New("watch: adder required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("watch: create %s: %w", dir, err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 750 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		accept:   opts.Accept,
		adder:    opts.Adder,
		logger:   logging.NewComponentLogger(opts.Logger, "watch"),
		pending:  make(map[string]*pendingFile),
		handled:  make(map[string]fileStamp),
		ready:    make(chan struct{}),
	}, nil
}

// Run watches until ctx is cancelled. Files already present when Run starts
// are left alone.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching drop folder", logging.String("dir", w.dir))
	close(w.ready)

	defer func() {
		w.mu.Lock()
		for path, pf := range w.pending {
			if pf.timer.Stop() {
				w.wg.Done()
			}
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !w.candidate(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "drop folder watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some dropped files may be missed"),
			)
		}
	}
}

// Ready is closed once Run has registered the directory.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// candidate filters out editor lock files, hidden files and unsupported types.
func (w *Watcher) candidate(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	if w.accept != nil && !w.accept(path) {
		return false
	}
	return true
}

// schedule (re)arms the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pf, ok := w.pending[path]; ok {
		if pf.timer.Stop() {
			pf.timer.Reset(w.debounce)
			return
		}
	}
	w.wg.Add(1)
	pf := &pendingFile{}
	pf.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.settle(ctx, path, pf)
	})
	w.pending[path] = pf
}

func (w *Watcher) settle(ctx context.Context, path string, pf *pendingFile) {
	w.mu.Lock()
	if w.pending[path] == pf {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// Renamed away or deleted before it settled.
		return
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
	w.mu.Lock()
	if prev, ok := w.handled[path]; ok && prev == stamp {
		w.mu.Unlock()
		return
	}
	w.handled[path] = stamp
	w.mu.Unlock()

	entry, err := w.adder.Add(ctx, path, "")
	if err != nil {
		logging.WarnWithContext(w.logger, "dropped presentation not added", "watch_add_failed",
			logging.String("path", path),
			logging.Error(err),
		)
		return
	}
	logging.WithContext(logging.WithEntryID(ctx, entry.ID), w.logger).Info("dropped presentation added",
		logging.String("path", path))
}
