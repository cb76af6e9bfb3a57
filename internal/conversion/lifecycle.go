package conversion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/playlist"
)

// Add appends a converting placeholder for sourcePath and starts its
// conversion in the background. slideSeconds is kept on the entry as given;
// empty uses the converter's default.
func (c *Coordinator) Add(ctx context.Context, sourcePath, slideSeconds string) (playlist.Entry, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return playlist.Entry{}, fmt.Errorf("add: empty path: %w", ErrUnsupportedSource)
	}
	if c.accept != nil && !c.accept(sourcePath) {
		return playlist.Entry{}, fmt.Errorf("add %s: %w", filepath.Base(sourcePath), ErrUnsupportedSource)
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return playlist.Entry{}, fmt.Errorf("add: resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return playlist.Entry{}, fmt.Errorf("add: %w", err)
	}
	if info.IsDir() {
		return playlist.Entry{}, fmt.Errorf("add %s: is a directory: %w", abs, ErrUnsupportedSource)
	}

	entry := playlist.NewPlaceholder(abs)
	entry.SlideSeconds = strings.TrimSpace(slideSeconds)
	if err := c.store.Append(ctx, entry); err != nil {
		return playlist.Entry{}, fmt.Errorf("add: %w", err)
	}
	logging.WithContext(logging.WithEntryID(ctx, entry.ID), c.logger).Info("presentation added",
		logging.String("source", abs),
		logging.String("slide_seconds", entry.SlideSeconds))
	c.refresh(ctx)
	c.start(entry.ID, abs)
	return entry, nil
}

// Retry restarts the conversion of a failed entry from its source presentation.
func (c *Coordinator) Retry(ctx context.Context, entryID string) (playlist.Entry, error) {
	if c.isActive(entryID) {
		return playlist.Entry{}, ErrConversionActive
	}
	var updated playlist.Entry
	found, err := c.store.Update(ctx, entryID, func(entry *playlist.Entry) error {
		if entry.State() != playlist.StateError {
			return ErrNotFailed
		}
		if strings.TrimSpace(entry.SourcePath) == "" {
			return ErrNoSource
		}
		entry.MarkConverting()
		updated = *entry
		return nil
	})
	if err != nil {
		return playlist.Entry{}, fmt.Errorf("retry: %w", err)
	}
	if !found {
		return playlist.Entry{}, fmt.Errorf("retry %s: %w", entryID, playlist.ErrNotFound)
	}
	logging.WithContext(logging.WithEntryID(ctx, entryID), c.logger).Info("retrying conversion",
		logging.String("source", updated.SourcePath))
	c.refresh(ctx)
	c.start(entryID, updated.SourcePath)
	return updated, nil
}

// Resume restarts conversions for entries a previous process left in the
// converting state and returns how many were started.
func (c *Coordinator) Resume(ctx context.Context) (int, error) {
	entries, err := c.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}
	started := 0
	for _, entry := range playlist.Filter(entries, playlist.StateConverting) {
		if c.isActive(entry.ID) {
			continue
		}
		source := strings.TrimSpace(entry.SourcePath)
		if source == "" {
			source = entry.Path
		}
		if c.accept != nil && !c.accept(source) {
			logging.WithContext(logging.WithEntryID(ctx, entry.ID), c.logger).Warn("interrupted entry has no presentation to resume",
				logging.String("path", entry.Path))
			continue
		}
		c.start(entry.ID, source)
		started++
	}
	if started > 0 {
		c.logger.Info("resumed interrupted conversions", logging.Int("count", started))
	}
	return started, nil
}

// Remove deletes an entry. A conversion still running for it is cancelled
// and writes nothing.
func (c *Coordinator) Remove(ctx context.Context, entryID string) (bool, error) {
	c.mu.Lock()
	cancel := c.active[entryID]
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	removed, err := c.store.Remove(ctx, entryID)
	if err != nil {
		return false, fmt.Errorf("remove: %w", err)
	}
	if removed {
		logging.WithContext(logging.WithEntryID(ctx, entryID), c.logger).Info("playlist entry removed")
		c.refresh(ctx)
	}
	return removed, nil
}

// Clear removes every entry that is not converting and returns how many were removed.
func (c *Coordinator) Clear(ctx context.Context) (int, error) {
	removed, err := c.store.RemoveWhere(ctx, func(entry playlist.Entry) bool {
		return entry.State() != playlist.StateConverting
	})
	if err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	if removed > 0 {
		c.refresh(ctx)
	}
	return removed, nil
}

// Active returns the IDs of entries whose conversion is running in the background.
func (c *Coordinator) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every background conversion has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Shutdown cancels background conversions and waits for them to return.
// Interrupted entries stay converting so Resume can pick them up.
func (c *Coordinator) Shutdown() {
	c.stopBase()
	c.wg.Wait()
}

func (c *Coordinator) isActive(entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[entryID]
	return ok
}

// start launches Convert as an independent task bound to the coordinator's
// lifetime rather than the caller's request.
func (c *Coordinator) start(entryID, sourcePath string) {
	c.mu.Lock()
	if _, running := c.active[entryID]; running {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.active[entryID] = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.active, entryID)
			c.mu.Unlock()
			cancel()
		}()
		if _, err := c.Convert(ctx, sourcePath, entryID); err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(logging.WithContext(logging.WithEntryID(ctx, entryID), c.logger),
				"conversion bookkeeping failed", "store_failure",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the playlist database"),
			)
		}
	}()
}

// List returns the playlist in order.
func (c *Coordinator) List(ctx context.Context) ([]playlist.Entry, error) {
	entries, err := c.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list playlist: %w", err)
	}
	return entries, nil
}
