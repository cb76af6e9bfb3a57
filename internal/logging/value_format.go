package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Long values are cut at this many runes in console output. JSON logs keep
// the full value.
const consoleValueLimit = 240

// attrString returns the bare text of a header value such as the component.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// formatValue renders a field for the console handler. Thumbnails are data
// URLs of several kilobytes, so they are summarized; ffmpeg and exporter
// errors often span lines, so only the first line is kept.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if summary, ok := summarizeDataURL(s); ok {
		return summary
	}
	return quoteIfNeeded(firstLine(s))
}

// summarizeDataURL turns "data:image/png;base64,...." into
// "<image/png, 5.2 KiB>".
func summarizeDataURL(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", false
	}
	mime, _, _ := strings.Cut(meta, ";")
	if mime == "" {
		mime = "text/plain"
	}
	return fmt.Sprintf("<%s, %s>", mime, humanBytes(len(payload)*3/4)), true
}

func humanBytes(n int) string {
	if n < 1024 {
		return strconv.Itoa(n) + " B"
	}
	return strconv.FormatFloat(float64(n)/1024, 'f', 1, 64) + " KiB"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	line, rest, multi := strings.Cut(s, "\n")
	line = strings.TrimRight(line, "\r")
	if multi {
		line += fmt.Sprintf(" (+%d lines)", strings.Count(rest, "\n")+1)
	}
	if runes := []rune(line); len(runes) > consoleValueLimit {
		line = string(runes[:consoleValueLimit]) + "…"
	}
	return line
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, "=\"\t") {
		return strconv.Quote(s)
	}
	return s
}
