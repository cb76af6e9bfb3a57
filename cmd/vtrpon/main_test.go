package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/magcho/vtrpon/internal/api"
	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/daemon"
	"github.com/magcho/vtrpon/internal/playlist"
	"github.com/magcho/vtrpon/internal/testsupport"
)

type fileConverter struct {
	outDir string
}

func (f fileConverter) Convert(_ context.Context, source, _ string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(f.outDir, base+".mp4"), nil
}

type staticProber struct{}

func (staticProber) Probe(context.Context, string) (playlist.Metadata, error) {
	return playlist.Metadata{Resolution: "1920x1080", Duration: "00:00:30:00"}, nil
}

type staticThumbnailer struct{}

func (staticThumbnailer) Generate(context.Context, string) (string, error) {
	return "data:image/png;base64,AA==", nil
}

func (staticThumbnailer) ErrorThumbnail() string { return "data:image/png;base64,EE==" }

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteFile(t, path, data)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// startDaemon runs an API-enabled daemon with fake conversion collaborators
// and points the returned config file at it.
func startDaemon(t *testing.T) (*daemon.Daemon, *config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, nil, daemon.Options{
		Converter:   fileConverter{outDir: cfg.Paths.OutputDir},
		Prober:      staticProber{},
		Thumbnailer: staticThumbnailer{},
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cliCfg := *cfg
	cliCfg.API.Bind = d.Addr()
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, &cliCfg)
	return d, cfg, configPath
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "vtrpon.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigShowMasksToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.API.Token = "super-secret"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, configPath)
	requireContains(t, out, cfg.Paths.OutputDir)
	if strings.Contains(out, "super-secret") {
		t.Fatalf("token leaked in output: %s", out)
	}
}

func TestPlaylistListEmptyWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.API.Bind = "127.0.0.1:1"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"playlist", "list"}, configPath)
	if err != nil {
		t.Fatalf("playlist list: %v", err)
	}
	requireContains(t, out, "Playlist is empty")
}

func TestCLIAgainstRunningDaemon(t *testing.T) {
	d, cfg, configPath := startDaemon(t)
	source := testsupport.WritePresentation(t, t.TempDir(), "keynote.pptx")

	out, _, err := runCLI(t, []string{"add", "--wait", "--seconds", "5", source}, configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Added keynote.pptx")
	requireContains(t, out, string(playlist.StateReady))
	requireContains(t, out, "1920x1080")

	out, _, err = runCLI(t, []string{"playlist", "list", "--json"}, configPath)
	if err != nil {
		t.Fatalf("playlist list --json: %v", err)
	}
	var listed api.PlaylistResponse
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(listed.Entries) != 1 {
		t.Fatalf("expected one entry, got %+v", listed.Entries)
	}
	entry := listed.Entries[0]
	if entry.Path != filepath.Join(cfg.Paths.OutputDir, "keynote.mp4") || entry.OutPoint != "00:00:30:00" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.SlideSeconds != "5" {
		t.Fatalf("--seconds not recorded on the entry: %+v", entry)
	}

	out, _, err = runCLI(t, []string{"playlist", "retry", entry.ID[:8]}, configPath)
	if err == nil {
		t.Fatalf("expected retry of a ready entry to fail, got %q", out)
	}

	out, _, err = runCLI(t, []string{"playlist", "remove", entry.ID[:8]}, configPath)
	if err != nil {
		t.Fatalf("playlist remove: %v", err)
	}
	requireContains(t, out, "Removed "+entry.ID[:8])

	entries, err := d.Coordinator().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty playlist, got %+v", entries)
	}
}

func TestPlaylistClearAgainstRunningDaemon(t *testing.T) {
	d, _, configPath := startDaemon(t)
	dir := t.TempDir()
	for _, name := range []string{"a.pptx", "b.key"} {
		if _, err := d.Coordinator().Add(context.Background(), testsupport.WritePresentation(t, dir, name), ""); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	d.Coordinator().Wait()

	out, _, err := runCLI(t, []string{"playlist", "clear"}, configPath)
	if err != nil {
		t.Fatalf("playlist clear: %v", err)
	}
	requireContains(t, out, "Removed 2 entries")
}

func TestLocalAddRecordsFailedConversion(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.API.Bind = "127.0.0.1:1"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	// The stubbed exporter exits cleanly without writing slides, so the
	// conversion fails and the entry is kept in the error state.
	source := testsupport.WritePresentation(t, t.TempDir(), "broken.pptx")
	out, _, err := runCLI(t, []string{"add", source}, configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Added broken.pptx")
	requireContains(t, out, string(playlist.StateError))

	store := testsupport.MustOpenStore(t, cfg)
	entries, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != 1 || entries[0].State() != playlist.StateError {
		t.Fatalf("expected one failed entry, got %+v", entries)
	}
	if entries[0].SourcePath != source {
		t.Fatalf("source path = %q, want %q", entries[0].SourcePath, source)
	}
}

func TestAddRejectsUnsupportedFile(t *testing.T) {
	_, _, configPath := startDaemon(t)
	notes := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, notes, []byte("hello"))

	_, _, err := runCLI(t, []string{"add", notes}, configPath)
	if err == nil {
		t.Fatal("expected unsupported file to be rejected")
	}
	requireContains(t, err.Error(), "422")
}

func TestDepsCommandWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"deps"}, configPath)
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "LibreOffice")
	if strings.Contains(out, "missing") {
		t.Fatalf("unexpected missing dependency:\n%s", out)
	}
}

func TestDepsCommandReportsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe", "soffice", "pdftoppm", "pdfinfo"))
	cfg.Encoder.FFmpegBinary = "vtrpon-missing-ffmpeg"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"deps"}, configPath)
	if err == nil {
		t.Fatalf("expected deps to fail:\n%s", out)
	}
	requireContains(t, out, "missing")
}
