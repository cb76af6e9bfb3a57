package conversion

import (
	"context"
	"errors"
	"time"

	"github.com/magcho/vtrpon/internal/playlist"
)

// FailureAlertMessage is shown to the operator when a conversion fails.
const FailureAlertMessage = "PPTX conversion failed. PowerPoint may not be running properly."

var (
	// ErrUnsupportedSource reports a file that is not a presentation.
	ErrUnsupportedSource = errors.New("unsupported presentation file")
	// ErrNotFailed reports a retry of an entry that is not in the error state.
	ErrNotFailed = errors.New("entry is not in the error state")
	// ErrConversionActive reports an entry whose conversion is still running.
	ErrConversionActive = errors.New("conversion already running")
	// ErrNoSource reports an entry without a recorded source presentation.
	ErrNoSource = errors.New("entry has no source presentation")
)

// Converter turns a presentation into a video and returns the video path.
// slideSeconds is the per-slide display time as entered; empty means the
// converter's own default.
type Converter interface {
	Convert(ctx context.Context, sourcePath, slideSeconds string) (string, error)
}

// Prober describes a rendered video.
type Prober interface {
	Probe(ctx context.Context, path string) (playlist.Metadata, error)
}

// Thumbnailer renders preview images as data URLs.
type Thumbnailer interface {
	Generate(ctx context.Context, videoPath string) (string, error)
	ErrorThumbnail() string
}

// placeholderSource is implemented by thumbnailers that offer a neutral image
// for finished videos whose preview could not be rendered.
type placeholderSource interface {
	PlaceholderThumbnail() string
}

// Refresher receives the playlist after every persisted change.
type Refresher interface {
	Refresh(ctx context.Context, entries []playlist.Entry)
}

// Alert is a transient message for the operator.
type Alert struct {
	Level    string        `json:"level"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	EntryID  string        `json:"entryId,omitempty"`
}

// Alerter displays transient operator alerts.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}

// Notifier publishes conversion outcomes to an external channel.
type Notifier interface {
	NotifyConversionCompleted(ctx context.Context, name, outputPath string) error
	NotifyConversionFailed(ctx context.Context, name string, err error) error
}

// Refreshers fans a refresh out to several observers.
type Refreshers []Refresher

func (r Refreshers) Refresh(ctx context.Context, entries []playlist.Entry) {
	for _, refresher := range r {
		if refresher != nil {
			refresher.Refresh(ctx, entries)
		}
	}
}

// Alerters fans an alert out to several observers.
type Alerters []Alerter

func (a Alerters) Alert(ctx context.Context, alert Alert) {
	for _, alerter := range a {
		if alerter != nil {
			alerter.Alert(ctx, alert)
		}
	}
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context, entries []playlist.Entry)

func (f RefreshFunc) Refresh(ctx context.Context, entries []playlist.Entry) { f(ctx, entries) }

// AlertFunc adapts a function to Alerter.
type AlertFunc func(ctx context.Context, alert Alert)

func (f AlertFunc) Alert(ctx context.Context, alert Alert) { f(ctx, alert) }
