package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/magcho/vtrpon/internal/logging"
)

const slideshowJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "r_frame_rate": "1/1", "avg_frame_rate": "1/1", "duration": "3.000000", "pix_fmt": "yuv420p"}
  ],
  "format": {"filename": "deck_video.mp4", "nb_streams": 1, "duration": "3.000000", "size": "20480", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestDecodeAndHelpers(t *testing.T) {
	result, err := Decode([]byte(slideshowJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 1920 {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if result.DurationSeconds() != 3 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 20480 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if video.FrameRate() != 1 {
		t.Fatalf("unexpected frame rate: %v", video.FrameRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "4.5"}},
		Format:  Format{Duration: "bad", Size: "-1"},
	}
	if result.DurationSeconds() != 4.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if !math.IsNaN(parseFloat("nope")) {
		t.Fatal("expected NaN for invalid float")
	}
}

func TestMetadataFromResult(t *testing.T) {
	result, err := Decode([]byte(slideshowJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	meta, err := MetadataFromResult(result)
	if err != nil {
		t.Fatalf("MetadataFromResult: %v", err)
	}
	if meta.Resolution != "1920x1080" {
		t.Fatalf("unexpected resolution %q", meta.Resolution)
	}
	if meta.Duration != "00:00:03:00" {
		t.Fatalf("unexpected duration %q", meta.Duration)
	}
}

func TestMetadataFromResultRequiresVideo(t *testing.T) {
	_, err := MetadataFromResult(Result{Streams: []Stream{{CodecType: "audio"}}})
	if !errors.Is(err, ErrNoVideoStream) {
		t.Fatalf("expected ErrNoVideoStream, got %v", err)
	}
}

func TestProberPropagatesInspectFailure(t *testing.T) {
	prober := NewProber("ffprobe", 0, logging.NewNop())
	prober.inspect = func(context.Context, string, string) (Result, error) {
		return Result{}, errors.New("exit status 1")
	}
	if _, err := prober.Probe(context.Background(), "/missing.mp4"); err == nil {
		t.Fatal("expected error from failing inspect")
	}
}

func TestProberUsesInspectResult(t *testing.T) {
	prober := NewProber("ffprobe", 0, logging.NewNop())
	prober.inspect = func(_ context.Context, binary, path string) (Result, error) {
		if binary != "ffprobe" || path != "/out.mp4" {
			t.Fatalf("unexpected inspect args %q %q", binary, path)
		}
		return Decode([]byte(slideshowJSON))
	}
	meta, err := prober.Probe(context.Background(), "/out.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Resolution != "1920x1080" || meta.Duration != "00:00:03:00" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}
