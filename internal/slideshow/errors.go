package slideshow

import "errors"

var (
	// ErrNoSlides reports an export that produced no slide images.
	ErrNoSlides = errors.New("no slide images found")
	// ErrUnsupportedBackend reports an exporter backend unavailable on this platform.
	ErrUnsupportedBackend = errors.New("slide exporter backend not supported on this platform")
)
