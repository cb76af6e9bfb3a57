package slideshow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/testsupport"
)

type fakeExporter struct {
	slides int
	err    error
	dirs   []string
}

func (f *fakeExporter) Name() string { return "fake" }

func (f *fakeExporter) Export(_ context.Context, _ string, slideDir string) (int, error) {
	f.dirs = append(f.dirs, slideDir)
	if f.err != nil {
		return 0, f.err
	}
	for i := 1; i <= f.slides; i++ {
		if err := os.WriteFile(filepath.Join(slideDir, SlideFileName(i)), []byte("png"), 0o644); err != nil {
			return 0, err
		}
	}
	return f.slides, nil
}

type fakeEncoder struct {
	err     error
	seconds int
	outputs []string
}

func (f *fakeEncoder) Encode(_ context.Context, slideDir string, slideSeconds int, output string) error {
	f.seconds = slideSeconds
	f.outputs = append(f.outputs, output)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte("video"), 0o644)
}

type fakeArchiver struct {
	err   error
	calls int
}

func (f *fakeArchiver) Archive(_ context.Context, videoPath string) (string, error) {
	f.calls++
	return videoPath + ".mkv", f.err
}

func newTestPipeline(t *testing.T, exporter Exporter, encoder videoEncoder) *Pipeline {
	t.Helper()
	namer := NewNamer(time.UTC)
	namer.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return &Pipeline{
		Exporter:     exporter,
		Encoder:      encoder,
		Namer:        namer,
		Container:    "MP4",
		SlideSeconds: "4",
		logger:       logging.NewNop(),
	}
}

func TestPipelineConvertWritesNextToSource(t *testing.T) {
	dir := t.TempDir()
	source := testsupport.WritePresentation(t, dir, "talk.pptx")
	exporter := &fakeExporter{slides: 3}
	encoder := &fakeEncoder{}
	pipeline := newTestPipeline(t, exporter, encoder)

	output, err := pipeline.Convert(context.Background(), source, "")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if output != filepath.Join(dir, "talk_video_2024-05-06-07-08-09-1.mp4") {
		t.Fatalf("unexpected output %q", output)
	}
	if encoder.seconds != 4 {
		t.Fatalf("slide seconds not passed, got %d", encoder.seconds)
	}
	if len(exporter.dirs) != 1 || !strings.HasPrefix(filepath.Base(exporter.dirs[0]), "talk_pngconvert_") {
		t.Fatalf("unexpected slide dir %v", exporter.dirs)
	}
	if _, err := os.Stat(exporter.dirs[0]); !os.IsNotExist(err) {
		t.Fatalf("slide dir should be removed, stat err=%v", err)
	}
}

func TestPipelineSlideSecondsFallback(t *testing.T) {
	cases := []struct {
		name       string
		deck       string
		configured string
		want       string
	}{
		{"deck value", "7", "4", "1/7"},
		{"configured default", "", "4", "1/4"},
		{"non-numeric deck value", "abc", "4", "1/1"},
		{"non-numeric default", "", "abc", "1/1"},
		{"nothing set", "", "", "1/1"},
		{"negative", "-3", "4", "1/1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := testsupport.WritePresentation(t, t.TempDir(), "talk.pptx")
			encoder := &fakeEncoder{}
			pipeline := newTestPipeline(t, &fakeExporter{slides: 1}, encoder)
			pipeline.SlideSeconds = tc.configured
			if _, err := pipeline.Convert(context.Background(), source, tc.deck); err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got := FrameRate(encoder.seconds); got != tc.want {
				t.Fatalf("expected framerate %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPipelineKeepSlidesAndOutputDir(t *testing.T) {
	source := testsupport.WritePresentation(t, t.TempDir(), "talk.pptx")
	outDir := t.TempDir()
	exporter := &fakeExporter{slides: 1}
	pipeline := newTestPipeline(t, exporter, &fakeEncoder{})
	pipeline.OutputDir = outDir
	pipeline.KeepSlides = true

	output, err := pipeline.Convert(context.Background(), source, "")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if filepath.Dir(output) != outDir {
		t.Fatalf("expected output in %s, got %s", outDir, output)
	}
	if _, err := os.Stat(filepath.Join(exporter.dirs[0], "Slide_001.png")); err != nil {
		t.Fatalf("expected kept slides: %v", err)
	}
}

func TestPipelineNoSlides(t *testing.T) {
	source := testsupport.WritePresentation(t, t.TempDir(), "empty.pptx")
	encoder := &fakeEncoder{}
	pipeline := newTestPipeline(t, &fakeExporter{slides: 0}, encoder)
	if _, err := pipeline.Convert(context.Background(), source, ""); !errors.Is(err, ErrNoSlides) {
		t.Fatalf("expected ErrNoSlides, got %v", err)
	}
	if len(encoder.outputs) != 0 {
		t.Fatal("encoder should not run without slides")
	}
}

func TestPipelineExportFailureKeepsCounter(t *testing.T) {
	source := testsupport.WritePresentation(t, t.TempDir(), "talk.pptx")
	exporter := &fakeExporter{err: errors.New("automation failed")}
	encoder := &fakeEncoder{}
	pipeline := newTestPipeline(t, exporter, encoder)
	if _, err := pipeline.Convert(context.Background(), source, ""); err == nil {
		t.Fatal("expected export error")
	}

	exporter.err = nil
	exporter.slides = 2
	output, err := pipeline.Convert(context.Background(), source, "")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.HasSuffix(output, "-1.mp4") {
		t.Fatalf("failed export should not consume a counter, got %s", output)
	}
}

func TestPipelineEncodeFailure(t *testing.T) {
	source := testsupport.WritePresentation(t, t.TempDir(), "talk.pptx")
	encoder := &fakeEncoder{err: errors.New("ffmpeg encode: exit status 1")}
	pipeline := newTestPipeline(t, &fakeExporter{slides: 2}, encoder)
	if _, err := pipeline.Convert(context.Background(), source, ""); err == nil {
		t.Fatal("expected encode error")
	}
}

func TestPipelineArchiveFailureOnlyWarns(t *testing.T) {
	source := testsupport.WritePresentation(t, t.TempDir(), "talk.pptx")
	archiver := &fakeArchiver{err: errors.New("drapto missing")}
	pipeline := newTestPipeline(t, &fakeExporter{slides: 2}, &fakeEncoder{})
	pipeline.Archiver = archiver
	output, err := pipeline.Convert(context.Background(), source, "")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if output == "" || archiver.calls != 1 {
		t.Fatalf("expected archive attempt, output=%q calls=%d", output, archiver.calls)
	}
}

func TestDraptoArchiverOutputPath(t *testing.T) {
	dir := t.TempDir()
	archiver := NewDraptoArchiver(logging.NewNop())
	var gotDir string
	archiver.encode = func(_ context.Context, input, outputDir string) error {
		gotDir = outputDir
		return nil
	}
	path, err := archiver.Archive(context.Background(), filepath.Join(dir, "talk_video.mp4"))
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if gotDir != filepath.Join(dir, "archive") || path != filepath.Join(dir, "archive", "talk_video.mkv") {
		t.Fatalf("unexpected archive paths dir=%q path=%q", gotDir, path)
	}
}
