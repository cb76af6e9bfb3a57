// Package main hosts the vtrpon CLI entrypoint and command graph.
//
// Commands that touch the playlist talk to a running daemon over its HTTP API
// and fall back to opening the playlist database in-process when no daemon
// answers. "serve" runs the daemon itself; "convert" renders a single
// presentation in the foreground without touching the playlist.
package main
