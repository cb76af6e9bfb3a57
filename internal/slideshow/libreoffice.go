package slideshow

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/magcho/vtrpon/internal/logging"
)

var (
	pdfPageSize = regexp.MustCompile(`(?m)^Page\s+size:\s+([\d.]+)\s+x\s+([\d.]+)\s+pts`)
	pdfPages    = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)
)

// LibreOfficeExporter converts the presentation to PDF with a headless
// soffice, reads the page size with pdfinfo, and rasterizes each page with
// pdftoppm.
type LibreOfficeExporter struct {
	Soffice  string
	Pdftoppm string
	Pdfinfo  string
	logger   *slog.Logger
	run      commandRunner
}

// NewLibreOfficeExporter constructs the exporter; empty binaries use their PATH names.
func NewLibreOfficeExporter(soffice, pdftoppm, pdfinfo string, logger *slog.Logger) *LibreOfficeExporter {
	return &LibreOfficeExporter{
		Soffice:  defaultBinary(soffice, "soffice"),
		Pdftoppm: defaultBinary(pdftoppm, "pdftoppm"),
		Pdfinfo:  defaultBinary(pdfinfo, "pdfinfo"),
		logger:   logging.NewComponentLogger(logger, "libreoffice"),
		run:      defaultCommandRunner,
	}
}

func (l *LibreOfficeExporter) Name() string { return "libreoffice" }

// Export renders sourcePath into slideDir.
func (l *LibreOfficeExporter) Export(ctx context.Context, sourcePath, slideDir string) (int, error) {
	work, err := os.MkdirTemp(slideDir, ".pdf-")
	if err != nil {
		return 0, fmt.Errorf("create pdf workspace: %w", err)
	}
	defer os.RemoveAll(work)

	logger := logging.WithContext(ctx, l.logger)

	// A private profile lets several soffice instances run at once.
	profile := (&url.URL{Scheme: "file", Path: toURLPath(filepath.Join(work, "profile"))}).String()
	args := []string{
		"-env:UserInstallation=" + profile,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", work,
		sourcePath,
	}
	logger.Debug("converting presentation to pdf", logging.String("command", commandLine(l.Soffice, args)))
	if _, err := l.run(ctx, l.Soffice, args...); err != nil {
		return 0, fmt.Errorf("soffice convert: %w", err)
	}
	pdfPath := filepath.Join(work, BaseName(sourcePath)+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return 0, fmt.Errorf("soffice convert: expected %s: %w", filepath.Base(pdfPath), err)
	}

	info, err := l.run(ctx, l.Pdfinfo, pdfPath)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	width, height, pages, err := parsePDFInfo(string(info))
	if err != nil {
		return 0, err
	}
	exportW, exportH := ExportSize(width, height)
	logger.Info("exporting slides",
		logging.Int("slides", pages),
		logging.String("native_size", fmt.Sprintf("%gx%g", width, height)),
		logging.String("export_size", fmt.Sprintf("%dx%d", exportW, exportH)),
	)

	prefix := filepath.Join(work, "page")
	rasterArgs := []string{
		"-png",
		"-scale-to-x", strconv.Itoa(exportW),
		"-scale-to-y", strconv.Itoa(exportH),
		pdfPath,
		prefix,
	}
	if _, err := l.run(ctx, l.Pdftoppm, rasterArgs...); err != nil {
		return 0, fmt.Errorf("pdftoppm: %w", err)
	}

	rendered, err := ListSlides(work)
	if err != nil {
		return 0, err
	}
	for i, name := range rendered {
		target := filepath.Join(slideDir, SlideFileName(i+1))
		if err := os.Rename(filepath.Join(work, name), target); err != nil {
			return 0, fmt.Errorf("rename slide %s: %w", name, err)
		}
	}
	return len(rendered), nil
}

// parsePDFInfo extracts the first page size in points and the page count.
func parsePDFInfo(output string) (float64, float64, int, error) {
	match := pdfPageSize.FindStringSubmatch(output)
	if match == nil {
		return 0, 0, 0, fmt.Errorf("pdfinfo: page size not reported")
	}
	width, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("pdfinfo: page width %q: %w", match[1], err)
	}
	height, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("pdfinfo: page height %q: %w", match[2], err)
	}
	pages := 0
	if m := pdfPages.FindStringSubmatch(output); m != nil {
		pages, _ = strconv.Atoi(m[1])
	}
	return width, height, pages, nil
}

func toURLPath(path string) string {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func defaultBinary(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
