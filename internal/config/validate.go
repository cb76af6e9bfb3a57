package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConverter(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConverter() error {
	switch c.Converter.Backend {
	case BackendAuto, BackendPowerPoint, BackendLibreOffice:
	default:
		return fmt.Errorf("converter.backend: unsupported value %q (expected auto, powerpoint or libreoffice)", c.Converter.Backend)
	}
	if c.Converter.TimeoutSeconds <= 0 {
		return errors.New("converter.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Container == "" {
		return errors.New("encoder.container must be set")
	}
	if c.Encoder.Timezone != "" {
		if _, err := time.LoadLocation(c.Encoder.Timezone); err != nil {
			return fmt.Errorf("encoder.timezone: %w", err)
		}
	}
	return nil
}

func (c *Config) validateThumbnails() error {
	switch c.Thumbnails.Format {
	case ThumbnailPNG, ThumbnailWebP:
	default:
		return fmt.Errorf("thumbnails.format: unsupported value %q (expected png or webp)", c.Thumbnails.Format)
	}
	if c.Thumbnails.Width > 1920 || c.Thumbnails.Height > 1080 {
		return errors.New("thumbnails: size must not exceed 1920x1080")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
