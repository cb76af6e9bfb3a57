package slideshow

import "math"

const (
	hdWidth       = 1920
	hdHeight      = 1080
	wideAspect    = 16.0 / 9.0
	aspectEpsilon = 0.1
	nativeScale   = 2.0
)

// ExportSize returns the pixel size slides are exported at. Slides whose
// aspect ratio is within 0.1 of 16:9 export at 1920x1080; anything else
// exports at twice its native size, rounded.
func ExportSize(width, height float64) (int, int) {
	if width <= 0 || height <= 0 {
		return hdWidth, hdHeight
	}
	if math.Abs(width/height-wideAspect) < aspectEpsilon {
		return hdWidth, hdHeight
	}
	return int(math.Round(width * nativeScale)), int(math.Round(height * nativeScale))
}
