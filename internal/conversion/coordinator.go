package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/playlist"
)

// Dependencies are the collaborators a Coordinator drives.
type Dependencies struct {
	Store       playlist.Store
	Converter   Converter
	Prober      Prober
	Thumbnailer Thumbnailer
	Refresher   Refresher
	Alerter     Alerter
	Notifier    Notifier
	Logger      *slog.Logger
}

// Options tune coordinator behaviour.
type Options struct {
	// Timeout bounds one Converter call. Zero disables the deadline.
	Timeout time.Duration
	// MaxConcurrent caps simultaneous Converter calls. Values below one mean one.
	MaxConcurrent int
	// AlertDuration is how long failure alerts stay visible.
	AlertDuration time.Duration
	// Accept reports whether a path may be added. Nil accepts everything.
	Accept func(path string) bool
}

// Coordinator runs conversions and owns playlist entry state transitions.
type Coordinator struct {
	store       playlist.Store
	converter   Converter
	prober      Prober
	thumbnailer Thumbnailer
	refresher   Refresher
	alerter     Alerter
	notifier    Notifier
	logger      *slog.Logger

	timeout       time.Duration
	alertDuration time.Duration
	accept        func(string) bool
	slots         chan struct{}

	refreshMu sync.Mutex

	mu       sync.Mutex
	active   map[string]context.CancelFunc
	baseCtx  context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs a coordinator. Store, Converter, Prober and Thumbnailer are required.
func New(deps Dependencies, opts Options) (*Coordinator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("conversion coordinator: store required")
	case deps.Converter == nil:
		return nil, errors.New("conversion coordinator: converter required")
	case deps.Prober == nil:
		return nil, errors.New("conversion coordinator: prober required")
	case deps.Thumbnailer == nil:
		return nil, errors.New("conversion coordinator: thumbnailer required")
	}
	limit := opts.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	alertDuration := opts.AlertDuration
	if alertDuration <= 0 {
		alertDuration = 5 * time.Second
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Coordinator{
		store:         deps.Store,
		converter:     deps.Converter,
		prober:        deps.Prober,
		thumbnailer:   deps.Thumbnailer,
		refresher:     deps.Refresher,
		alerter:       deps.Alerter,
		notifier:      deps.Notifier,
		logger:        logging.NewComponentLogger(deps.Logger, "conversion"),
		timeout:       opts.Timeout,
		alertDuration: alertDuration,
		accept:        opts.Accept,
		slots:         make(chan struct{}, limit),
		active:        make(map[string]context.CancelFunc),
		baseCtx:       baseCtx,
		stopBase:      stop,
	}, nil
}

// Convert runs one conversion for the entry identified by entryID and returns
// the rendered video path. A failed conversion puts the entry into the error
// state and returns ("", nil); the returned error is reserved for store
// failures and cancellation of ctx before a video exists. Once the converter
// has produced a video the entry is finalized even if ctx is cancelled. When
// the entry does not exist (or is removed while the converter runs) the
// conversion still happens but no playlist state is written.
func (c *Coordinator) Convert(ctx context.Context, sourcePath, entryID string) (string, error) {
	ctx = logging.WithEntryID(ctx, entryID)
	logger := logging.WithContext(ctx, c.logger)

	changed := false
	slideSeconds := ""
	found, err := c.store.Update(ctx, entryID, func(entry *playlist.Entry) error {
		slideSeconds = entry.SlideSeconds
		if entry.State() == playlist.StateConverting {
			return errUnchanged
		}
		entry.MarkConverting()
		changed = true
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return "", fmt.Errorf("mark converting: %w", err)
	}
	if !found {
		logger.Debug("playlist entry not found; converting without playlist updates",
			logging.String("source", sourcePath))
	}
	if changed {
		c.refresh(ctx)
	}

	output, convErr := c.runConverter(ctx, sourcePath, slideSeconds)
	if convErr == nil && output != "" {
		// The video is on disk; record it even when shutdown began meanwhile.
		return c.finalize(context.WithoutCancel(ctx), entryID, output)
	}
	if ctx.Err() != nil {
		logger.Info("conversion interrupted; entry left converting for resume",
			logging.String("source", sourcePath))
		return "", ctx.Err()
	}
	if convErr == nil {
		convErr = errors.New("converter returned no output path")
	}
	return "", c.fail(ctx, entryID, sourcePath, convErr)
}

// errUnchanged aborts an Update whose entry already has the desired state.
var errUnchanged = errors.New("entry unchanged")

func (c *Coordinator) runConverter(ctx context.Context, sourcePath, slideSeconds string) (string, error) {
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.slots }()

	convCtx := logging.WithStage(ctx, "convert")
	if c.timeout > 0 {
		var cancel context.CancelFunc
		convCtx, cancel = context.WithTimeout(convCtx, c.timeout)
		defer cancel()
	}
	started := time.Now()
	logger := logging.WithContext(convCtx, c.logger)
	logger.Info("conversion started", logging.String("source", sourcePath))
	output, err := c.converter.Convert(convCtx, sourcePath, slideSeconds)
	if err != nil && ctx.Err() == nil && errors.Is(convCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("conversion exceeded %s: %w", c.timeout, err)
	}
	logger.Debug("converter returned",
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("failed", err != nil),
	)
	return output, err
}

func (c *Coordinator) fail(ctx context.Context, entryID, sourcePath string, cause error) error {
	logger := logging.WithContext(ctx, c.logger)
	logging.ErrorWithContext(logger, "conversion failed", "conversion_failed",
		logging.String("source", sourcePath),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check that the presentation opens in the exporter application"),
	)

	thumbnail := c.thumbnailer.ErrorThumbnail()
	found, err := c.store.Update(ctx, entryID, func(entry *playlist.Entry) error {
		entry.MarkFailed(thumbnail, cause.Error())
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if found {
		c.refresh(ctx)
	}
	if c.alerter != nil {
		c.alerter.Alert(ctx, Alert{
			Level:    "alert",
			Message:  FailureAlertMessage,
			Duration: c.alertDuration,
			EntryID:  entryID,
		})
	}
	if c.notifier != nil {
		if err := c.notifier.NotifyConversionFailed(ctx, playlist.DisplayName(sourcePath), cause); err != nil {
			logger.Debug("failure notification not delivered", logging.Error(err))
		}
	}
	return nil
}

func (c *Coordinator) finalize(ctx context.Context, entryID, output string) (string, error) {
	logger := logging.WithContext(ctx, c.logger)

	meta, err := c.prober.Probe(logging.WithStage(ctx, "probe"), output)
	if err != nil {
		logging.WarnWithContext(logger, "metadata probe failed; using defaults", "probe_failed",
			logging.String("output", output),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry shows Unknown resolution and a 10 second duration"),
		)
		meta = playlist.Metadata{Resolution: playlist.ResolutionUnknown, Duration: playlist.DefaultDuration}
	}

	thumbnail, err := c.thumbnailer.Generate(logging.WithStage(ctx, "thumbnail"), output)
	if err != nil {
		if source, ok := c.thumbnailer.(placeholderSource); ok {
			thumbnail = source.PlaceholderThumbnail()
		} else {
			thumbnail = ""
		}
		logging.WarnWithContext(logger, "thumbnail generation failed; using placeholder", "thumbnail_failed",
			logging.String("output", output),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry shows a neutral preview"),
		)
	}

	found, err := c.store.Update(ctx, entryID, func(entry *playlist.Entry) error {
		entry.Finalize(output, meta, thumbnail)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("finalize entry: %w", err)
	}
	if !found {
		logger.Debug("playlist entry removed during conversion; result not recorded",
			logging.String("output", output))
		return output, nil
	}
	c.refresh(ctx)
	logger.Info("playlist entry ready",
		logging.String("output", output),
		logging.String("resolution", meta.Resolution),
		logging.String("duration", meta.Duration),
	)
	if c.notifier != nil {
		if err := c.notifier.NotifyConversionCompleted(ctx, playlist.DisplayName(output), output); err != nil {
			logger.Debug("completion notification not delivered", logging.Error(err))
		}
	}
	return output, nil
}

// refresh publishes the playlist as it is after the latest persist. Snapshots
// are read and delivered under one lock so observers never go backwards.
func (c *Coordinator) refresh(ctx context.Context) {
	if c.refresher == nil {
		return
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	entries, err := c.store.All(context.WithoutCancel(ctx))
	if err != nil {
		logging.WithContext(ctx, c.logger).Warn("playlist snapshot failed; refresh skipped", logging.Error(err))
		return
	}
	c.refresher.Refresh(ctx, entries)
}
