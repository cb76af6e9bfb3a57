package api

import "time"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry describes a playlist entry in a transport-friendly format.
type Entry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	SourcePath   string `json:"sourcePath,omitempty"`
	SlideSeconds string `json:"slideSeconds,omitempty"`
	State        string `json:"state"`
	Converting   bool   `json:"converting"`
	MediaOffline bool   `json:"mediaOffline"`
	Resolution   string `json:"resolution"`
	Duration     string `json:"duration"`
	InPoint      string `json:"inPoint"`
	OutPoint     string `json:"outPoint"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// PlaylistResponse wraps the ordered playlist.
type PlaylistResponse struct {
	Entries []Entry `json:"entries"`
}

// EntryResponse wraps a single entry.
type EntryResponse struct {
	Entry Entry `json:"entry"`
}

// AddRequest asks the daemon to convert a presentation.
type AddRequest struct {
	Path string `json:"path"`
	// SlideSeconds is the per-slide display time. Empty uses the daemon's
	// configured default.
	SlideSeconds string `json:"slideSeconds,omitempty"`
}

// RemoveResponse reports whether an entry was removed.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearResponse reports how many entries a clear removed.
type ClearResponse struct {
	Removed int `json:"removed"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Status aggregates daemon runtime information for API consumers.
type Status struct {
	Running           bool               `json:"running"`
	PID               int                `json:"pid"`
	PlaylistDBPath    string             `json:"playlistDbPath"`
	LockFilePath      string             `json:"lockFilePath"`
	WatchDir          string             `json:"watchDir,omitempty"`
	ActiveConversions int                `json:"activeConversions"`
	Counts            map[string]int     `json:"counts"`
	Dependencies      []DependencyStatus `json:"dependencies"`
}

// Event types pushed over the websocket.
const (
	EventPlaylist = "playlist"
	EventAlert    = "alert"
)

// Event is one websocket message.
type Event struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries,omitempty"`
	Alert   *Alert  `json:"alert,omitempty"`
	SentAt  string  `json:"sentAt"`
}

// Alert is a transient operator message.
type Alert struct {
	Level      string `json:"level"`
	Message    string `json:"message"`
	DurationMS int64  `json:"durationMs"`
	EntryID    string `json:"entryId,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
