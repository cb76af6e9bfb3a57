package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/magcho/vtrpon/internal/api"
	"github.com/magcho/vtrpon/internal/playlist"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stateLabel(state string, colorize bool) string {
	if !colorize {
		return state
	}
	switch playlist.State(state) {
	case playlist.StateReady:
		return ansiGreen + state + ansiReset
	case playlist.StateError:
		return ansiRed + state + ansiReset
	case playlist.StateConverting:
		return ansiYellow + state + ansiReset
	default:
		return state
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func buildPlaylistRows(entries []api.Entry, colorize bool) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			shortID(entry.ID),
			entry.Name,
			stateLabel(entry.State, colorize),
			entry.Resolution,
			entry.InPoint,
			entry.OutPoint,
		})
	}
	return rows
}

func renderPlaylist(out io.Writer, entries []api.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Playlist is empty")
		return
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "ID", "Name", "State", "Resolution", "In", "Out"},
		buildPlaylistRows(entries, shouldColorize(out)),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	for _, entry := range entries {
		if entry.State == string(playlist.StateError) && strings.TrimSpace(entry.ErrorMessage) != "" {
			fmt.Fprintf(out, "%s: %s\n", shortID(entry.ID), entry.ErrorMessage)
		}
	}
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
