package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magcho/vtrpon/internal/api"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:     "playlist",
		Aliases: []string{"pl"},
		Short:   "Inspect and manage the playlist",
	}

	playlistCmd.AddCommand(newPlaylistListCommand(ctx))
	playlistCmd.AddCommand(newPlaylistRemoveCommand(ctx))
	playlistCmd.AddCommand(newPlaylistRetryCommand(ctx))
	playlistCmd.AddCommand(newPlaylistClearCommand(ctx))

	return playlistCmd
}

func newPlaylistListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List playlist entries in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlaylist(cmd, func(backend playlistBackend, _ bool) error {
				entries, err := backend.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), api.PlaylistResponse{Entries: entries})
				}
				renderPlaylist(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newPlaylistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove entries; running conversions are cancelled",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlaylist(cmd, func(backend playlistBackend, _ bool) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := resolveEntryID(cmd.Context(), backend, arg)
					if err != nil {
						return err
					}
					removed, err := backend.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if !removed {
						fmt.Fprintf(out, "Entry %s not found\n", shortID(id))
						continue
					}
					fmt.Fprintf(out, "Removed %s\n", shortID(id))
				}
				return nil
			})
		},
	}
}

func newPlaylistRetryCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "retry <id>...",
		Short: "Convert failed entries again from their presentations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlaylist(cmd, func(backend playlistBackend, remote bool) error {
				out := cmd.OutOrStdout()
				retried := make([]api.Entry, 0, len(args))
				for _, arg := range args {
					id, err := resolveEntryID(cmd.Context(), backend, arg)
					if err != nil {
						return err
					}
					entry, err := backend.Retry(cmd.Context(), id)
					if err != nil {
						return fmt.Errorf("retry %s: %w", shortID(id), err)
					}
					retried = append(retried, entry)
					fmt.Fprintf(out, "Retrying %s (%s)\n", entry.Name, shortID(entry.ID))
				}
				if remote && !wait {
					return nil
				}
				return waitForEntries(cmd, backend, retried)
			})
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the daemon to finish converting")
	return cmd
}

func newPlaylistClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry that is not converting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPlaylist(cmd, func(backend playlistBackend, _ bool) error {
				removed, err := backend.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entr%s\n", removed, pluralY(removed))
				return nil
			})
		},
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
