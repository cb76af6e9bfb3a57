// Package timecode formats SMPTE-style HH:MM:SS:FF timecodes and parses
// ffprobe frame rates.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NominalFPS is used when a stream reports no usable frame rate.
const NominalFPS = 30

// Format renders seconds as HH:MM:SS:FF at fps frames per second. Rates below
// one frame per second (slideshows encoded at 1/N) and non-finite values fall
// back to NominalFPS so the frame field stays meaningful.
func Format(seconds, fps float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	frameRate := int(math.Round(fps))
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps < 1 || frameRate < 1 {
		frameRate = NominalFPS
	}

	totalFrames := int64(math.Round(seconds * float64(frameRate)))
	frames := totalFrames % int64(frameRate)
	totalSeconds := totalFrames / int64(frameRate)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// ParseRate parses ffprobe rational rates such as "30000/1001" or "1/5".
func ParseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
