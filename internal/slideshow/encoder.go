package slideshow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/magcho/vtrpon/internal/logging"
)

// evenPadFilter pads odd export sizes so yuv420p encoders accept them.
const evenPadFilter = "pad=ceil(iw/2)*2:ceil(ih/2)*2"

// FFmpegEncoder assembles numbered slide images into a video.
type FFmpegEncoder struct {
	Binary      string
	VideoCodec  string
	PixelFormat string
	logger      *slog.Logger
	run         commandRunner
}

// NewFFmpegEncoder constructs an encoder using binary (ffmpeg when empty).
func NewFFmpegEncoder(binary, codec, pixelFormat string, logger *slog.Logger) *FFmpegEncoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegEncoder{
		Binary:      binary,
		VideoCodec:  codec,
		PixelFormat: pixelFormat,
		logger:      logging.NewComponentLogger(logger, "ffmpeg"),
		run:         defaultCommandRunner,
	}
}

// Args returns the ffmpeg argument list for encoding slideDir into output.
func (e *FFmpegEncoder) Args(slideDir string, slideSeconds int, output string) []string {
	codec := strings.TrimSpace(e.VideoCodec)
	if codec == "" {
		codec = "libx264"
	}
	pixFmt := strings.TrimSpace(e.PixelFormat)
	if pixFmt == "" {
		pixFmt = "yuv420p"
	}
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-framerate", FrameRate(slideSeconds),
		"-i", filepath.Join(slideDir, SlidePattern),
		"-vf", evenPadFilter,
		"-c:v", codec,
		"-pix_fmt", pixFmt,
		output,
	}
}

// Encode runs ffmpeg over the slides in slideDir.
func (e *FFmpegEncoder) Encode(ctx context.Context, slideDir string, slideSeconds int, output string) error {
	args := e.Args(slideDir, slideSeconds, output)
	logging.WithContext(ctx, e.logger).Info("running ffmpeg",
		logging.String("command", commandLine(e.Binary, args)),
		logging.String("output", output),
	)
	run := e.run
	if run == nil {
		run = defaultCommandRunner
	}
	if _, err := run(ctx, e.Binary, args...); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	return nil
}
