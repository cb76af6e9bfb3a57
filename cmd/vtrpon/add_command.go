package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/magcho/vtrpon/internal/api"
	"github.com/magcho/vtrpon/internal/playlist"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		wait    bool
		seconds string
	)

	cmd := &cobra.Command{
		Use:   "add <presentation>...",
		Short: "Add presentations to the playlist and convert them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlaylist(cmd, func(backend playlistBackend, remote bool) error {
				out := cmd.OutOrStdout()
				added := make([]api.Entry, 0, len(args))
				for _, arg := range args {
					abs, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve %s: %w", arg, err)
					}
					entry, err := backend.Add(cmd.Context(), abs, seconds)
					if err != nil {
						return fmt.Errorf("add %s: %w", arg, err)
					}
					added = append(added, entry)
					fmt.Fprintf(out, "Added %s as %s\n", entry.Name, shortID(entry.ID))
				}
				if remote && !wait {
					fmt.Fprintln(out, "Conversion continues in the daemon; check `vtrpon playlist list`.")
					return nil
				}
				return waitForEntries(cmd, backend, added)
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the daemon to finish converting")
	cmd.Flags().StringVarP(&seconds, "seconds", "s", "", "Seconds each slide stays on screen (default from config)")
	return cmd
}

// waitForEntries polls until none of the added entries is converting, then
// prints the outcome. In-process conversions run in the background too, so
// the same polling serves both modes.
func waitForEntries(cmd *cobra.Command, backend playlistBackend, added []api.Entry) error {
	ids := make(map[string]bool, len(added))
	for _, entry := range added {
		ids[entry.ID] = true
	}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		entries, err := backend.List(cmd.Context())
		if err != nil {
			return err
		}
		pending := 0
		var finished []api.Entry
		for _, entry := range entries {
			if !ids[entry.ID] {
				continue
			}
			if entry.State == string(playlist.StateConverting) {
				pending++
				continue
			}
			finished = append(finished, entry)
		}
		if pending == 0 {
			renderPlaylist(cmd.OutOrStdout(), finished)
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-ticker.C:
		}
	}
}
