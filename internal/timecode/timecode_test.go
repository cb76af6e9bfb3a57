package timecode

import (
	"math"
	"testing"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name    string
		seconds float64
		fps     float64
		want    string
	}{
		{"zero", 0, 30, "00:00:00:00"},
		{"ten seconds", 10, 30, "00:00:10:00"},
		{"fractional", 5.5, 30, "00:00:05:15"},
		{"hours", 3723.2, 25, "01:02:03:05"},
		{"slideshow rate falls back", 5, 0.2, "00:00:05:00"},
		{"unknown rate", 2.5, 0, "00:00:02:15"},
		{"ntsc", 1, 29.97, "00:00:01:00"},
		{"negative clamps", -3, 30, "00:00:00:00"},
		{"nan clamps", math.NaN(), 30, "00:00:00:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.seconds, tc.fps); got != tc.want {
				t.Fatalf("Format(%v, %v) = %q, want %q", tc.seconds, tc.fps, got, tc.want)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	cases := map[string]float64{
		"30/1":       30,
		"1/5":        0.2,
		"25":         25,
		"0/0":        0,
		"":           0,
		"garbage":    0,
		"30000/1001": 30000.0 / 1001.0,
	}
	for input, want := range cases {
		if got := ParseRate(input); got != want {
			t.Fatalf("ParseRate(%q) = %v, want %v", input, got, want)
		}
	}
}
