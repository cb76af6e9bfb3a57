// Package ffprobe provides a typed wrapper around ffprobe JSON output and the
// metadata prober used to describe rendered videos in the playlist.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Prober: turns a Result into playlist resolution and timecode duration
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Prober.Probe: Inspect plus conversion to playlist.Metadata
package ffprobe
