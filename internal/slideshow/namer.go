package slideshow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TimestampLayout formats the timestamp embedded in output names.
const TimestampLayout = "2006-01-02-15-04-05"

// Namer allocates unique output video names. Counters are kept per timestamp
// and start at 1; a name whose file already exists is skipped.
type Namer struct {
	mu       sync.Mutex
	location *time.Location
	now      func() time.Time
	counters map[string]int
}

// NewNamer returns a Namer stamping names in loc (local time when nil).
func NewNamer(loc *time.Location) *Namer {
	if loc == nil {
		loc = time.Local
	}
	return &Namer{location: loc, now: time.Now, counters: make(map[string]int)}
}

// Next reserves the next output path in dir for base with extension ext.
func (n *Namer) Next(dir, base, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	n.mu.Lock()
	defer n.mu.Unlock()

	stamp := n.now().In(n.location).Format(TimestampLayout)
	// Only the current second can still collide in memory.
	for key := range n.counters {
		if key != stamp {
			delete(n.counters, key)
		}
	}
	for {
		n.counters[stamp]++
		candidate := filepath.Join(dir, fmt.Sprintf("%s_video_%s-%d.%s", base, stamp, n.counters[stamp], ext))
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
