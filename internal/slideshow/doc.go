// Package slideshow turns a presentation into a video.
//
// A Pipeline exports every slide to a numbered PNG through an Exporter
// (PowerPoint automation on Windows, LibreOffice plus poppler elsewhere),
// assembles the images with ffmpeg at one frame per slide interval, and names
// the result "<base>_video_<timestamp>-<counter>.<ext>" next to the source or
// in the configured output directory. An optional drapto pass writes an AV1
// archival copy of the rendered video.
//
// The helpers for export sizing, slide naming, ordering, and frame rates are
// exported so other packages and tests share one definition.
package slideshow
