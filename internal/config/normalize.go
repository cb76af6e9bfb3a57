package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConverter()
	c.normalizeEncoder()
	c.normalizeProbe()
	c.normalizeThumbnails()
	c.normalizePlaylist()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WatchDir, err = expandPath(strings.TrimSpace(c.Paths.WatchDir)); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConverter() {
	c.Converter.Backend = strings.ToLower(strings.TrimSpace(c.Converter.Backend))
	if c.Converter.Backend == "" {
		c.Converter.Backend = defaultConverterBackend
	}
	if c.Converter.TimeoutSeconds <= 0 {
		c.Converter.TimeoutSeconds = defaultConverterTimeout
	}
	c.Converter.SofficeBinary = defaultString(c.Converter.SofficeBinary, defaultSofficeBinary)
	c.Converter.PdftoppmBinary = defaultString(c.Converter.PdftoppmBinary, defaultPdftoppmBinary)
	c.Converter.PdfinfoBinary = defaultString(c.Converter.PdfinfoBinary, defaultPdfinfoBinary)
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = defaultString(c.Encoder.FFmpegBinary, defaultFFmpegBinary)
	c.Encoder.SlideSeconds = defaultString(c.Encoder.SlideSeconds, defaultSlideSeconds)
	c.Encoder.VideoCodec = defaultString(c.Encoder.VideoCodec, defaultVideoCodec)
	c.Encoder.PixelFormat = defaultString(c.Encoder.PixelFormat, defaultPixelFormat)
	c.Encoder.Container = strings.TrimPrefix(strings.ToLower(defaultString(c.Encoder.Container, defaultContainer)), ".")
	c.Encoder.Timezone = strings.TrimSpace(c.Encoder.Timezone)
}

func (c *Config) normalizeProbe() {
	c.Probe.FFprobeBinary = defaultString(c.Probe.FFprobeBinary, defaultFFprobeBinary)
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeout
	}
}

func (c *Config) normalizeThumbnails() {
	if c.Thumbnails.Width <= 0 {
		c.Thumbnails.Width = defaultThumbnailWidth
	}
	if c.Thumbnails.Height <= 0 {
		c.Thumbnails.Height = defaultThumbnailHeight
	}
	c.Thumbnails.Format = strings.ToLower(defaultString(c.Thumbnails.Format, defaultThumbnailFormat))
}

func (c *Config) normalizePlaylist() {
	if c.Playlist.MaxConcurrent <= 0 {
		c.Playlist.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Playlist.AlertSeconds <= 0 {
		c.Playlist.AlertSeconds = defaultAlertSeconds
	}
	if c.Playlist.WatchDebounceMS <= 0 {
		c.Playlist.WatchDebounceMS = defaultWatchDebounceMS
	}
	c.API.Bind = defaultString(c.API.Bind, defaultAPIBind)
	c.API.Token = strings.TrimSpace(c.API.Token)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("VTRPON_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, defaultLogLevel))
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
