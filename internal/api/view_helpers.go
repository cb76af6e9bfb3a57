package api

import (
	"github.com/magcho/vtrpon/internal/conversion"
	"github.com/magcho/vtrpon/internal/playlist"
)

// FromEntry converts a playlist entry into its API representation.
func FromEntry(entry playlist.Entry) Entry {
	return Entry{
		ID:           entry.ID,
		Name:         entry.Name,
		Path:         entry.Path,
		SourcePath:   entry.SourcePath,
		SlideSeconds: entry.SlideSeconds,
		State:        string(entry.State()),
		Converting:   entry.Converting,
		MediaOffline: entry.MediaOffline,
		Resolution:   entry.Resolution,
		Duration:     entry.Duration,
		InPoint:      entry.InPoint,
		OutPoint:     entry.OutPoint,
		Thumbnail:    entry.Thumbnail,
		ErrorMessage: entry.ErrorMessage,
		CreatedAt:    formatTime(entry.CreatedAt),
		UpdatedAt:    formatTime(entry.UpdatedAt),
	}
}

// FromEntries converts a playlist snapshot, preserving order.
func FromEntries(entries []playlist.Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// FromAlert converts a coordinator alert.
func FromAlert(alert conversion.Alert) Alert {
	return Alert{
		Level:      alert.Level,
		Message:    alert.Message,
		DurationMS: alert.Duration.Milliseconds(),
		EntryID:    alert.EntryID,
	}
}

// CountStates tallies entries per lifecycle state.
func CountStates(entries []playlist.Entry) map[string]int {
	counts := map[string]int{
		string(playlist.StateConverting): 0,
		string(playlist.StateReady):      0,
		string(playlist.StateError):      0,
	}
	for _, entry := range entries {
		counts[string(entry.State())]++
	}
	return counts
}
