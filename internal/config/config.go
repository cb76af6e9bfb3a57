package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
	WatchDir  string `toml:"watch_dir"`
}

// Converter contains configuration for exporting slides from a presentation.
type Converter struct {
	// Backend selects the slide exporter: "auto", "powerpoint", or "libreoffice".
	Backend        string `toml:"backend"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	KeepSlides     bool   `toml:"keep_slides"`
	SofficeBinary  string `toml:"soffice_binary"`
	PdftoppmBinary string `toml:"pdftoppm_binary"`
	PdfinfoBinary  string `toml:"pdfinfo_binary"`
}

// Encoder contains configuration for assembling slide images into a video.
type Encoder struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	// SlideSeconds is the default per-slide display time in seconds. It is
	// read as leniently as a per-deck value: anything that is not a positive
	// number shows each slide for one second.
	SlideSeconds string `toml:"slide_seconds"`
	VideoCodec   string `toml:"video_codec"`
	PixelFormat  string `toml:"pixel_format"`
	Container    string `toml:"container"`
	// Timezone names the IANA zone used for output file timestamps. Empty uses local time.
	Timezone      string `toml:"timezone"`
	DraptoEnabled bool   `toml:"drapto_enabled"`
}

// Probe contains configuration for media inspection.
type Probe struct {
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Thumbnails contains configuration for playlist preview images.
type Thumbnails struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Format string `toml:"format"`
}

// Playlist contains configuration for the conversion coordinator.
type Playlist struct {
	MaxConcurrent   int  `toml:"max_concurrent"`
	ResumeOnStartup bool `toml:"resume_on_startup"`
	AlertSeconds    int  `toml:"alert_seconds"`
	WatchDebounceMS int  `toml:"watch_debounce_ms"`
}

// API contains configuration for the HTTP and websocket surface.
type API struct {
	Bind string `toml:"bind"`
	// Token, when set, must be presented as a bearer token on every request.
	Token string `toml:"token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vtrpon.
//
// Configuration sections by subsystem:
//   - Paths: data, log, output and drop-folder directories
//   - Converter: slide exporter backend and its binaries
//   - Encoder: ffmpeg slideshow assembly and output naming
//   - Probe: ffprobe metadata inspection
//   - Thumbnails: playlist preview size and format
//   - Playlist: coordinator concurrency and alerts
//   - API: HTTP/websocket bind address
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Converter     Converter     `toml:"converter"`
	Encoder       Encoder       `toml:"encoder"`
	Probe         Probe         `toml:"probe"`
	Thumbnails    Thumbnails    `toml:"thumbnails"`
	Playlist      Playlist      `toml:"playlist"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vtrpon.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The watch directory is created on a best-effort basis so the daemon can run
// when a network share is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if err := os.MkdirAll(c.Paths.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", c.Paths.OutputDir, err)
		}
	}
	if strings.TrimSpace(c.Paths.WatchDir) != "" {
		_ = os.MkdirAll(c.Paths.WatchDir, 0o755)
	}
	return nil
}

// ResolvedBackend returns the concrete exporter backend. "auto" picks
// PowerPoint automation on Windows and LibreOffice elsewhere.
func (c *Config) ResolvedBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Converter.Backend))
	if backend == "" || backend == BackendAuto {
		if runtime.GOOS == "windows" {
			return BackendPowerPoint
		}
		return BackendLibreOffice
	}
	return backend
}

// PlaylistDBPath returns the SQLite database backing the playlist.
func (c *Config) PlaylistDBPath() string {
	return filepath.Join(c.Paths.DataDir, "playlist.db")
}

// LockPath returns the file used to enforce a single daemon instance.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vtrpon.lock")
}

// ConversionTimeout returns the deadline applied to one slide export and encode.
func (c *Config) ConversionTimeout() time.Duration {
	return time.Duration(c.Converter.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the deadline applied to ffprobe and thumbnail extraction.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// AlertDuration returns how long transient user alerts stay visible.
func (c *Config) AlertDuration() time.Duration {
	return time.Duration(c.Playlist.AlertSeconds) * time.Second
}

// WatchDebounce returns the quiet period the drop-folder watcher waits for.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Playlist.WatchDebounceMS) * time.Millisecond
}

// Location returns the time zone used for output file timestamps.
func (c *Config) Location() *time.Location {
	if c.Encoder.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Encoder.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
