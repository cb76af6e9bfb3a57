package slideshow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magcho/vtrpon/internal/config"
)

// Exporter renders every slide of a presentation into slideDir as
// SlideFileName(1..n) and returns n.
type Exporter interface {
	Name() string
	Export(ctx context.Context, sourcePath, slideDir string) (int, error)
}

// NewExporter selects the exporter for the configured backend.
func NewExporter(cfg *config.Config, logger *slog.Logger) (Exporter, error) {
	backend := cfg.ResolvedBackend()
	switch backend {
	case config.BackendPowerPoint:
		return newPowerPointExporter(logger)
	case config.BackendLibreOffice:
		return NewLibreOfficeExporter(cfg.Converter.SofficeBinary, cfg.Converter.PdftoppmBinary, cfg.Converter.PdfinfoBinary, logger), nil
	default:
		return nil, fmt.Errorf("exporter %q: %w", backend, ErrUnsupportedBackend)
	}
}
