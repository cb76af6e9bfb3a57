package slideshow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SlidePattern is the ffmpeg input pattern matching SlideFileName.
const SlidePattern = "Slide_%03d.png"

var (
	presentationExtensions = map[string]struct{}{
		".pptx": {},
		".ppt":  {},
		".pptm": {},
		".ppsx": {},
		".odp":  {},
		".key":  {},
	}
	trailingNumber = regexp.MustCompile(`(\d+)\.png$`)
	leadingDigits  = regexp.MustCompile(`^[+-]?\d+`)
)

// IsPresentation reports whether path has a presentation file extension.
func IsPresentation(path string) bool {
	_, ok := presentationExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SlideFileName returns the file name of the 1-based slide index.
func SlideFileName(index int) string {
	return fmt.Sprintf(SlidePattern, index)
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}

// SlideDirName returns a fresh slide directory name for a presentation base
// name. The random suffix keeps concurrent conversions of one deck apart.
func SlideDirName(base string) string {
	return base + "_pngconvert_" + uuid.NewString()[:8]
}

// slideNumber extracts the trailing number of a PNG file name. Names without
// one sort as 0.
func slideNumber(name string) int {
	match := trailingNumber.FindStringSubmatch(strings.ToLower(filepath.Base(name)))
	if match == nil {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}

// SortSlides orders slide file names by their trailing number so Slide_10
// follows Slide_9. Ties keep their original order.
func SortSlides(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return slideNumber(names[i]) < slideNumber(names[j])
	})
}

// ListSlides returns the PNG files in dir sorted by slide number.
func ListSlides(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	var slides []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			slides = append(slides, entry.Name())
		}
	}
	SortSlides(slides)
	return slides, nil
}

// ParseSlideSeconds reads a per-slide display time. Like a lenient integer
// parse it uses leading digits only ("5s" is 5); empty, non-numeric, zero or
// negative input yields 1.
func ParseSlideSeconds(value string) int {
	match := leadingDigits.FindString(strings.TrimSpace(value))
	if match == "" {
		return 1
	}
	n, err := strconv.Atoi(match)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// FrameRate returns the ffmpeg input rate showing each slide for seconds.
func FrameRate(seconds int) string {
	if seconds <= 0 {
		seconds = 1
	}
	return "1/" + strconv.Itoa(seconds)
}
