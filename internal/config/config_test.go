package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/magcho/vtrpon/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VTRPON_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "vtrpon")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.OutputDir != "" {
		t.Fatalf("expected empty output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Converter.Backend != config.BackendAuto {
		t.Fatalf("unexpected backend: %q", cfg.Converter.Backend)
	}
	if cfg.Encoder.SlideSeconds != "1" {
		t.Fatalf("expected one second per slide, got %q", cfg.Encoder.SlideSeconds)
	}
	if cfg.Thumbnails.Width != 112 || cfg.Thumbnails.Height != 63 {
		t.Fatalf("unexpected thumbnail size %dx%d", cfg.Thumbnails.Width, cfg.Thumbnails.Height)
	}
	if cfg.API.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.PlaylistDBPath() != filepath.Join(wantData, "playlist.db") {
		t.Fatalf("unexpected playlist db path: %q", cfg.PlaylistDBPath())
	}
	if cfg.ConversionTimeout() != 10*time.Minute {
		t.Fatalf("unexpected conversion timeout: %s", cfg.ConversionTimeout())
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "~/vtr"
output_dir = "~/videos"

[converter]
backend = " LibreOffice "

[encoder]
slide_seconds = " "
container = ".MKV"
timezone = "Asia/Tokyo"

[thumbnails]
format = "WEBP"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "vtr") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "videos") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Converter.Backend != config.BackendLibreOffice {
		t.Fatalf("expected libreoffice backend, got %q", cfg.Converter.Backend)
	}
	if cfg.Encoder.SlideSeconds != "1" {
		t.Fatalf("expected slide seconds to fall back to 1, got %q", cfg.Encoder.SlideSeconds)
	}
	if cfg.Encoder.Container != "mkv" {
		t.Fatalf("expected container mkv, got %q", cfg.Encoder.Container)
	}
	if cfg.Location().String() != "Asia/Tokyo" {
		t.Fatalf("unexpected location: %s", cfg.Location())
	}
	if cfg.Thumbnails.Format != config.ThumbnailWebP {
		t.Fatalf("unexpected thumbnail format: %q", cfg.Thumbnails.Format)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadAcceptsNonNumericSlideSeconds(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[encoder]\nslide_seconds = \"abc\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Encoder.SlideSeconds != "abc" {
		t.Fatalf("expected raw slide seconds to be kept, got %q", cfg.Encoder.SlideSeconds)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"backend", func(c *config.Config) { c.Converter.Backend = "keynote" }, "converter.backend"},
		{"thumbnail format", func(c *config.Config) { c.Thumbnails.Format = "gif" }, "thumbnails.format"},
		{"api bind", func(c *config.Config) { c.API.Bind = "not-an-address" }, "api.bind"},
		{"timezone", func(c *config.Config) { c.Encoder.Timezone = "Mars/Olympus" }, "encoder.timezone"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestNotificationTopicFallsBackToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VTRPON_NTFY_TOPIC", "https://ntfy.example/vtrpon")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/vtrpon" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSampleProducesValidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Encoder.FFmpegBinary != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary in sample: %q", decoded.Encoder.FFmpegBinary)
	}

	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesDataAndLogDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "out")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist (err=%v)", dir, err)
		}
	}
}
