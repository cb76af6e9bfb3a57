package slideshow

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/magcho/vtrpon/internal/logging"
)

func TestFFmpegArgs(t *testing.T) {
	enc := NewFFmpegEncoder("", "", "", logging.NewNop())
	args := enc.Args("/tmp/slides", 5, "/out/deck.mp4")
	want := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-framerate", "1/5",
		"-i", filepath.Join("/tmp/slides", "Slide_%03d.png"),
		"-vf", evenPadFilter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"/out/deck.mp4",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("Args = %v\nwant %v", args, want)
	}
	if enc.Binary != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", enc.Binary)
	}
}

func TestFFmpegEncodeWrapsFailure(t *testing.T) {
	enc := NewFFmpegEncoder("ffmpeg", "libx265", "yuv420p10le", logging.NewNop())
	var gotArgs []string
	enc.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, errors.New("exit status 1")
	}
	err := enc.Encode(context.Background(), "/s", 2, "/o.mp4")
	if err == nil || !strings.Contains(err.Error(), "ffmpeg encode") {
		t.Fatalf("expected wrapped ffmpeg error, got %v", err)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "-c:v libx265 -pix_fmt yuv420p10le") {
		t.Fatalf("codec settings not applied: %v", gotArgs)
	}
}

func TestCommandLineQuotes(t *testing.T) {
	got := commandLine("ffmpeg", []string{"-i", "/a b/c.png", ""})
	if got != `ffmpeg -i "/a b/c.png" ""` {
		t.Fatalf("commandLine = %s", got)
	}
}
