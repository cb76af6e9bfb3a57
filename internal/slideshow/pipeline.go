package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/logging"
)

// videoEncoder is the part of FFmpegEncoder the pipeline depends on.
type videoEncoder interface {
	Encode(ctx context.Context, slideDir string, slideSeconds int, output string) error
}

// Pipeline converts a presentation into a video: export, encode, name.
type Pipeline struct {
	Exporter     Exporter
	Encoder      videoEncoder
	Namer        *Namer
	Archiver     Archiver
	OutputDir    string
	Container    string
	// SlideSeconds is used for decks added without their own value.
	SlideSeconds string
	KeepSlides   bool
	logger       *slog.Logger
}

// NewPipeline wires a pipeline from configuration.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	exporter, err := NewExporter(cfg, logger)
	if err != nil {
		return nil, err
	}
	pipeline := &Pipeline{
		Exporter:     exporter,
		Encoder:      NewFFmpegEncoder(cfg.Encoder.FFmpegBinary, cfg.Encoder.VideoCodec, cfg.Encoder.PixelFormat, logger),
		Namer:        NewNamer(cfg.Location()),
		OutputDir:    cfg.Paths.OutputDir,
		Container:    cfg.Encoder.Container,
		SlideSeconds: cfg.Encoder.SlideSeconds,
		KeepSlides:   cfg.Converter.KeepSlides,
		logger:       logging.NewComponentLogger(logger, "slideshow"),
	}
	if cfg.Encoder.DraptoEnabled {
		pipeline.Archiver = NewDraptoArchiver(logger)
	}
	return pipeline, nil
}

// Convert renders sourcePath and returns the path of the video it wrote. Each
// slide is shown for slideSeconds, falling back to the pipeline default when
// empty; both are read with ParseSlideSeconds.
func (p *Pipeline) Convert(ctx context.Context, sourcePath, slideSeconds string) (string, error) {
	if p == nil || p.Exporter == nil || p.Encoder == nil || p.Namer == nil {
		return "", errors.New("slideshow pipeline not initialized")
	}
	logger := logging.WithContext(ctx, p.logger)

	outDir := strings.TrimSpace(p.OutputDir)
	if outDir == "" {
		outDir = filepath.Dir(sourcePath)
	}
	base := BaseName(sourcePath)
	slideDir := filepath.Join(outDir, SlideDirName(base))
	if err := os.MkdirAll(slideDir, 0o755); err != nil {
		return "", fmt.Errorf("create slide dir: %w", err)
	}
	if !p.KeepSlides {
		defer func() {
			if err := os.RemoveAll(slideDir); err != nil {
				logger.Warn("slide directory cleanup failed", logging.String("dir", slideDir), logging.Error(err))
			}
		}()
	}

	started := time.Now()
	exported, err := p.Exporter.Export(logging.WithStage(ctx, "export"), sourcePath, slideDir)
	if err != nil {
		return "", fmt.Errorf("export slides with %s: %w", p.Exporter.Name(), err)
	}
	slides, err := ListSlides(slideDir)
	if err != nil {
		return "", err
	}
	if len(slides) == 0 {
		return "", ErrNoSlides
	}
	logger.Info("slides exported",
		logging.String("exporter", p.Exporter.Name()),
		logging.Int("reported", exported),
		logging.Int("found", len(slides)),
		logging.Duration("export_duration", time.Since(started)),
	)

	container := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p.Container)), ".")
	if container == "" {
		container = "mp4"
	}
	output := p.Namer.Next(outDir, base, container)

	if strings.TrimSpace(slideSeconds) == "" {
		slideSeconds = p.SlideSeconds
	}
	seconds := ParseSlideSeconds(slideSeconds)
	if err := p.Encoder.Encode(logging.WithStage(ctx, "encode"), slideDir, seconds, output); err != nil {
		_ = os.Remove(output)
		return "", err
	}
	logger.Info("conversion completed",
		logging.String("output", output),
		logging.Int("slides", len(slides)),
		logging.Int("slide_seconds", seconds),
		logging.Duration("total_duration", time.Since(started)),
	)

	if p.Archiver != nil {
		archived, err := p.Archiver.Archive(logging.WithStage(ctx, "archive"), output)
		if err != nil {
			logging.WarnWithContext(logger, "archival copy failed", "archive_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check drapto installation and free space"),
				logging.String(logging.FieldImpact, "playlist video unaffected"),
			)
		} else {
			logger.Info("archival copy written", logging.String("archive", archived))
		}
	}
	return output, nil
}
