// Package watch turns presentations dropped into a folder into playlist
// additions. Bursts of filesystem events for one file are debounced so a
// presentation still being copied is added once, after it settles.
package watch
