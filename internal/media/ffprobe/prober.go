package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/playlist"
	"github.com/magcho/vtrpon/internal/timecode"
)

// ErrNoVideoStream reports a file without a decodable video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Prober derives playlist metadata from ffprobe output.
type Prober struct {
	Binary  string
	Timeout time.Duration
	Logger  *slog.Logger

	inspect func(ctx context.Context, binary, path string) (Result, error)
}

// NewProber constructs a prober for the given ffprobe binary.
func NewProber(binary string, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		Binary:  binary,
		Timeout: timeout,
		Logger:  logging.NewComponentLogger(logger, "probe"),
		inspect: Inspect,
	}
}

// Probe returns the resolution ("<w>x<h>") and duration timecode of path.
func (p *Prober) Probe(ctx context.Context, path string) (playlist.Metadata, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	inspect := p.inspect
	if inspect == nil {
		inspect = Inspect
	}
	result, err := inspect(ctx, p.Binary, path)
	if err != nil {
		return playlist.Metadata{}, err
	}
	meta, err := MetadataFromResult(result)
	if err != nil {
		return playlist.Metadata{}, fmt.Errorf("probe %s: %w", path, err)
	}
	if p.Logger != nil {
		p.Logger.Debug("probed media",
			logging.String("path", path),
			logging.String("resolution", meta.Resolution),
			logging.String("duration", meta.Duration),
		)
	}
	return meta, nil
}

// MetadataFromResult converts an ffprobe result into playlist metadata.
func MetadataFromResult(result Result) (playlist.Metadata, error) {
	video, ok := result.VideoStream()
	if !ok || video.Width <= 0 || video.Height <= 0 {
		return playlist.Metadata{}, ErrNoVideoStream
	}
	return playlist.Metadata{
		Resolution: fmt.Sprintf("%dx%d", video.Width, video.Height),
		Duration:   timecode.Format(result.DurationSeconds(), video.FrameRate()),
	}, nil
}
