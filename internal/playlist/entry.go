package playlist

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Placeholder values shown while an entry has no probed metadata.
const (
	ResolutionConverting = "Converting..."
	ResolutionUnknown    = "Unknown"
	DefaultDuration      = "00:00:10:00"
	ZeroTimecode         = "00:00:00:00"
)

// State is the derived lifecycle state of an entry.
type State string

const (
	StateConverting State = "converting"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Metadata is the probed description of a finished video.
type Metadata struct {
	Resolution string `json:"resolution"`
	Duration   string `json:"duration"`
}

// Entry is one item of the playlist. SlideSeconds keeps the per-slide display
// time as entered when the deck was added so retries and resumed conversions
// reuse it; empty means the configured default.
type Entry struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	SourcePath   string    `json:"sourcePath,omitempty"`
	SlideSeconds string    `json:"slideSeconds,omitempty"`
	Converting   bool      `json:"converting"`
	MediaOffline bool      `json:"mediaOffline"`
	Resolution   string    `json:"resolution"`
	Duration     string    `json:"duration"`
	InPoint      string    `json:"inPoint"`
	OutPoint     string    `json:"outPoint"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewPlaceholder builds the converting entry that stands in for a presentation
// until its video exists. The placeholder's path is the presentation itself.
func NewPlaceholder(sourcePath string) Entry {
	now := time.Now().UTC()
	entry := Entry{
		ID:         uuid.NewString(),
		Path:       sourcePath,
		Name:       DisplayName(sourcePath),
		SourcePath: sourcePath,
		InPoint:    ZeroTimecode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	entry.MarkConverting()
	return entry
}

// State reports which lifecycle state the entry flags describe.
func (e Entry) State() State {
	switch {
	case e.Converting:
		return StateConverting
	case e.MediaOffline:
		return StateError
	default:
		return StateReady
	}
}

// MarkConverting puts the entry into the converting state. Path is untouched.
func (e *Entry) MarkConverting() {
	e.Converting = true
	e.MediaOffline = false
	e.Resolution = ResolutionConverting
	e.Duration = DefaultDuration
	e.ErrorMessage = ""
}

// MarkFailed puts the entry into the error state with the supplied error image.
// Path is untouched so the entry keeps pointing at the presentation.
func (e *Entry) MarkFailed(thumbnail, message string) {
	e.Converting = false
	e.MediaOffline = true
	e.Thumbnail = thumbnail
	e.ErrorMessage = strings.TrimSpace(message)
}

// Finalize points the entry at its rendered video and fills in the probed
// metadata. Empty metadata fields fall back to the placeholder defaults.
func (e *Entry) Finalize(outputPath string, meta Metadata, thumbnail string) {
	resolution := strings.TrimSpace(meta.Resolution)
	if resolution == "" {
		resolution = ResolutionUnknown
	}
	duration := strings.TrimSpace(meta.Duration)
	if duration == "" {
		duration = DefaultDuration
	}
	e.Path = outputPath
	e.Name = DisplayName(outputPath)
	e.Thumbnail = thumbnail
	e.Resolution = resolution
	e.Duration = duration
	e.InPoint = ZeroTimecode
	e.OutPoint = duration
	e.MediaOffline = false
	e.Converting = false
	e.ErrorMessage = ""
}

// DisplayName returns the final path element in NFC form. Files created on
// macOS volumes often carry decomposed names that render oddly elsewhere.
func DisplayName(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	// Accept Windows separators regardless of host OS.
	trimmed = strings.ReplaceAll(trimmed, `\`, "/")
	return norm.NFC.String(filepath.Base(filepath.FromSlash(trimmed)))
}

// Find returns the index of the entry with id, or -1.
func Find(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
