package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/magcho/vtrpon/internal/api"
	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/daemon"
	"github.com/magcho/vtrpon/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// playlistBackend is the playlist surface shared by the remote client and
// the in-process fallback.
type playlistBackend interface {
	List(ctx context.Context) ([]api.Entry, error)
	Add(ctx context.Context, path, slideSeconds string) (api.Entry, error)
	Retry(ctx context.Context, id string) (api.Entry, error)
	Remove(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) (int, error)
}

// withPlaylist runs fn against the running daemon, or against a private
// in-process daemon when none answers. The local daemon finishes its
// conversions before returning.
func (c *commandContext) withPlaylist(cmd *cobra.Command, fn func(backend playlistBackend, remote bool) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	client := api.NewClient(cfg.API.Bind, cfg.API.Token)
	if _, err := client.Status(cmd.Context()); err == nil {
		return fn(client, true)
	} else if !errors.Is(err, api.ErrDaemonUnavailable) {
		return fmt.Errorf("contact daemon: %w", err)
	}

	local, err := openLocal(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer local.close(cmd.Context())
	return fn(local, false)
}

type localBackend struct {
	d *daemon.Daemon
}

func openLocal(ctx context.Context, cfg *config.Config) (*localBackend, error) {
	localCfg := *cfg
	localCfg.Playlist.ResumeOnStartup = false
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, err
	}
	d, err := daemon.New(&localCfg, logger, daemon.Options{DisableAPI: true, DisableWatch: true})
	if err != nil {
		return nil, err
	}
	if err := d.Start(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return &localBackend{d: d}, nil
}

// close waits for in-process conversions unless ctx was cancelled, in which
// case they are stopped and left converting for the next run to resume.
func (l *localBackend) close(ctx context.Context) {
	if ctx.Err() == nil {
		l.d.Coordinator().Wait()
	}
	_ = l.d.Close()
}

func (l *localBackend) List(ctx context.Context) ([]api.Entry, error) {
	entries, err := l.d.Coordinator().List(ctx)
	if err != nil {
		return nil, err
	}
	return api.FromEntries(entries), nil
}

func (l *localBackend) Add(ctx context.Context, path, slideSeconds string) (api.Entry, error) {
	entry, err := l.d.Coordinator().Add(ctx, path, slideSeconds)
	if err != nil {
		return api.Entry{}, err
	}
	return api.FromEntry(entry), nil
}

func (l *localBackend) Retry(ctx context.Context, id string) (api.Entry, error) {
	entry, err := l.d.Coordinator().Retry(ctx, id)
	if err != nil {
		return api.Entry{}, err
	}
	return api.FromEntry(entry), nil
}

func (l *localBackend) Remove(ctx context.Context, id string) (bool, error) {
	return l.d.Coordinator().Remove(ctx, id)
}

func (l *localBackend) Clear(ctx context.Context) (int, error) {
	return l.d.Coordinator().Clear(ctx)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// resolveEntryID expands a unique ID prefix, as printed by "playlist list".
func resolveEntryID(ctx context.Context, backend playlistBackend, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("entry id is required")
	}
	entries, err := backend.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, entry := range entries {
		if entry.ID == prefix {
			return entry.ID, nil
		}
		if strings.HasPrefix(entry.ID, prefix) {
			matches = append(matches, entry.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no playlist entry matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("entry id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
