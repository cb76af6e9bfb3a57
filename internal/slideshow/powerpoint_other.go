//go:build !windows

package slideshow

import (
	"fmt"
	"log/slog"
)

func newPowerPointExporter(*slog.Logger) (Exporter, error) {
	return nil, fmt.Errorf("powerpoint automation: %w", ErrUnsupportedBackend)
}
