// Package thumbnail renders playlist preview images as data URLs.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chai2010/webp"

	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/logging"
)

// frameGrabber returns the encoded PNG bytes of one frame.
type frameGrabber func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Generator extracts the first frame of a video as a small preview.
type Generator struct {
	FFmpegBinary string
	Width        int
	Height       int
	Format       string
	Timeout      time.Duration

	logger *slog.Logger
	grab   frameGrabber

	errorOnce sync.Once
	errorURL  string
	blankOnce sync.Once
	blankURL  string
}

// NewGenerator builds a generator from configuration.
func NewGenerator(cfg *config.Config, logger *slog.Logger) *Generator {
	return &Generator{
		FFmpegBinary: cfg.Encoder.FFmpegBinary,
		Width:        cfg.Thumbnails.Width,
		Height:       cfg.Thumbnails.Height,
		Format:       cfg.Thumbnails.Format,
		Timeout:      cfg.ProbeTimeout(),
		logger:       logging.NewComponentLogger(logger, "thumbnail"),
		grab:         runFFmpeg,
	}
}

func runFFmpeg(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg thumbnail: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (g *Generator) size() (int, int) {
	w, h := g.Width, g.Height
	if w <= 0 {
		w = 112
	}
	if h <= 0 {
		h = 63
	}
	return w, h
}

// Generate returns a data URL of the first frame of videoPath.
func (g *Generator) Generate(ctx context.Context, videoPath string) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", errors.New("thumbnail: empty path")
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	binary := strings.TrimSpace(g.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	w, h := g.size()
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", "scale=" + strconv.Itoa(w) + ":" + strconv.Itoa(h),
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
	grab := g.grab
	if grab == nil {
		grab = runFFmpeg
	}
	raw, err := grab(ctx, binary, args...)
	if err != nil {
		return "", err
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("thumbnail: decode frame: %w", err)
	}
	url, err := g.encode(img)
	if err != nil {
		return "", err
	}
	logging.WithContext(ctx, g.logger).Debug("thumbnail generated",
		logging.String("path", videoPath),
		logging.Int("bytes", len(url)),
	)
	return url, nil
}

// ErrorThumbnail returns the red "Error" image shown on failed entries.
func (g *Generator) ErrorThumbnail() string {
	g.errorOnce.Do(func() {
		w, h := g.size()
		url, err := g.encode(ErrorImage(w, h))
		if err != nil {
			g.logger.Error("error thumbnail render failed", logging.Error(err))
			return
		}
		g.errorURL = url
	})
	return g.errorURL
}

// PlaceholderThumbnail returns a neutral image used when a finished video
// cannot be previewed.
func (g *Generator) PlaceholderThumbnail() string {
	g.blankOnce.Do(func() {
		w, h := g.size()
		url, err := g.encode(PlaceholderImage(w, h))
		if err != nil {
			g.logger.Error("placeholder thumbnail render failed", logging.Error(err))
			return
		}
		g.blankURL = url
	})
	return g.blankURL
}

func (g *Generator) encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	mime := "image/png"
	if strings.EqualFold(g.Format, config.ThumbnailWebP) {
		mime = "image/webp"
		if err := webp.Encode(&buf, img, &webp.Options{Quality: 80}); err != nil {
			return "", fmt.Errorf("thumbnail: encode webp: %w", err)
		}
	} else if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("thumbnail: encode png: %w", err)
	}
	return DataURL(mime, buf.Bytes()), nil
}

// DataURL wraps data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
