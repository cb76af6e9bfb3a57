// Package conversion drives playlist entries through the presentation to
// video lifecycle.
//
// The Coordinator owns every state transition after an entry is added: it
// marks the placeholder as converting, runs the external Converter under a
// deadline with no store lock held, and then either finalizes the entry with
// probed metadata and a thumbnail or flips it to the error state and raises a
// user alert. All writes go through playlist.Store.Update keyed by the entry's
// stable ID, so an entry removed mid-conversion is never brought back and
// concurrent conversions never overwrite each other.
//
// Each persisted change is followed by a Refresh carrying a fresh snapshot of
// the playlist. Refreshers and Alerters fan one event out to several
// observers; the daemon pairs the websocket hub with the log.
package conversion
