package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	draptolib "github.com/five82/drapto"

	"github.com/magcho/vtrpon/internal/logging"
)

// Archiver writes an additional archival copy of a rendered video.
type Archiver interface {
	Archive(ctx context.Context, videoPath string) (string, error)
}

// DraptoArchiver encodes an AV1 copy of each rendered video into an
// "archive" directory next to it using the drapto library.
type DraptoArchiver struct {
	logger *slog.Logger
	encode func(ctx context.Context, inputPath, outputDir string) error
}

// NewDraptoArchiver constructs an archiver backed by drapto.
func NewDraptoArchiver(logger *slog.Logger) *DraptoArchiver {
	return &DraptoArchiver{
		logger: logging.NewComponentLogger(logger, "drapto"),
		encode: draptoEncode,
	}
}

func draptoEncode(ctx context.Context, inputPath, outputDir string) error {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return err
	}
	_, err = encoder.EncodeWithReporter(ctx, inputPath, outputDir, nil)
	return err
}

// Archive encodes videoPath and returns the archival file path.
func (d *DraptoArchiver) Archive(ctx context.Context, videoPath string) (string, error) {
	if videoPath == "" {
		return "", errors.New("archive: video path required")
	}
	outputDir := filepath.Join(filepath.Dir(videoPath), "archive")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create output dir: %w", err)
	}
	logging.WithContext(ctx, d.logger).Info("launching drapto encode",
		logging.String("input", videoPath),
		logging.String("output_dir", outputDir),
	)
	if err := d.encode(ctx, videoPath, outputDir); err != nil {
		return "", fmt.Errorf("drapto encode: %w", err)
	}
	return filepath.Join(outputDir, BaseName(videoPath)+".mkv"), nil
}
