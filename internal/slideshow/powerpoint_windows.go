//go:build windows

package slideshow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/magcho/vtrpon/internal/logging"
)

// PowerPointExporter drives an installed PowerPoint through COM automation.
type PowerPointExporter struct {
	logger *slog.Logger
}

func newPowerPointExporter(logger *slog.Logger) (Exporter, error) {
	return &PowerPointExporter{logger: logging.NewComponentLogger(logger, "powerpoint")}, nil
}

func (p *PowerPointExporter) Name() string { return "powerpoint" }

type exportResult struct {
	count int
	err   error
}

// Export opens the presentation hidden and exports each slide. COM calls
// cannot be interrupted, so on cancellation the export keeps running on its
// locked thread while Export returns the context error.
func (p *PowerPointExporter) Export(ctx context.Context, sourcePath, slideDir string) (int, error) {
	done := make(chan exportResult, 1)
	go func() {
		count, err := p.export(ctx, sourcePath, slideDir)
		done <- exportResult{count: count, err: err}
	}()
	select {
	case res := <-done:
		return res.count, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (p *PowerPointExporter) export(ctx context.Context, sourcePath, slideDir string) (count int, err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return 0, fmt.Errorf("initialize com: %w", err)
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("PowerPoint.Application")
	if err != nil {
		return 0, fmt.Errorf("create PowerPoint.Application: %w", err)
	}
	defer unknown.Release()
	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return 0, fmt.Errorf("query PowerPoint dispatch: %w", err)
	}
	defer app.Release()
	defer func() { _, _ = oleutil.CallMethod(app, "Quit") }()

	presentations, err := dispatchProperty(app, "Presentations")
	if err != nil {
		return 0, err
	}
	defer presentations.Release()

	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("resolve source path: %w", err)
	}
	// ReadOnly, Untitled, WithWindow
	opened, err := oleutil.CallMethod(presentations, "Open", absSource, true, false, false)
	if err != nil {
		return 0, fmt.Errorf("open presentation: %w", err)
	}
	pres := opened.ToIDispatch()
	defer pres.Release()
	defer func() { _, _ = oleutil.CallMethod(pres, "Close") }()

	pageSetup, err := dispatchProperty(pres, "PageSetup")
	if err != nil {
		return 0, err
	}
	defer pageSetup.Release()
	width, err := numberProperty(pageSetup, "SlideWidth")
	if err != nil {
		return 0, err
	}
	height, err := numberProperty(pageSetup, "SlideHeight")
	if err != nil {
		return 0, err
	}
	exportW, exportH := ExportSize(width, height)

	slides, err := dispatchProperty(pres, "Slides")
	if err != nil {
		return 0, err
	}
	defer slides.Release()
	total, err := numberProperty(slides, "Count")
	if err != nil {
		return 0, err
	}

	logging.WithContext(ctx, p.logger).Info("exporting slides",
		logging.Int("slides", int(total)),
		logging.String("native_size", fmt.Sprintf("%gx%g", width, height)),
		logging.String("export_size", fmt.Sprintf("%dx%d", exportW, exportH)),
	)

	absDir, err := filepath.Abs(slideDir)
	if err != nil {
		return 0, fmt.Errorf("resolve slide dir: %w", err)
	}
	for i := 1; i <= int(total); i++ {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		item, err := oleutil.CallMethod(slides, "Item", i)
		if err != nil {
			return count, fmt.Errorf("slide %d: %w", i, err)
		}
		slide := item.ToIDispatch()
		target := filepath.Join(absDir, SlideFileName(i))
		_, err = oleutil.CallMethod(slide, "Export", target, "PNG", exportW, exportH)
		slide.Release()
		if err != nil {
			return count, fmt.Errorf("export slide %d: %w", i, err)
		}
		count++
	}
	return count, nil
}

func dispatchProperty(disp *ole.IDispatch, name string) (*ole.IDispatch, error) {
	v, err := oleutil.GetProperty(disp, name)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return v.ToIDispatch(), nil
}

func numberProperty(disp *ole.IDispatch, name string) (float64, error) {
	v, err := oleutil.GetProperty(disp, name)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", name, err)
	}
	defer func() { _ = v.Clear() }()
	switch n := v.Value().(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("get %s: unexpected value %T", name, n)
	}
}
