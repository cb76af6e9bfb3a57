package deps

import (
	"github.com/magcho/vtrpon/internal/config"
)

// Requirements lists the external programs the configured pipeline runs.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Encoder.FFmpegBinary,
			Description: "Assembles slide images into video and grabs thumbnails",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Probe.FFprobeBinary,
			Description: "Reads resolution and duration of rendered videos",
		},
	}
	if cfg.ResolvedBackend() == config.BackendLibreOffice {
		reqs = append(reqs,
			Requirement{
				Name:        "LibreOffice",
				Command:     cfg.Converter.SofficeBinary,
				Description: "Exports presentations to PDF",
			},
			Requirement{
				Name:        "pdftoppm",
				Command:     cfg.Converter.PdftoppmBinary,
				Description: "Rasterizes exported PDF pages into slide images",
			},
			Requirement{
				Name:        "pdfinfo",
				Command:     cfg.Converter.PdfinfoBinary,
				Description: "Counts exported PDF pages",
				Optional:    true,
			},
		)
	}
	return reqs
}

// Check evaluates Requirements(cfg).
func Check(cfg *config.Config) []Status {
	return CheckBinaries(Requirements(cfg))
}
