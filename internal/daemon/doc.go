// Package daemon coordinates the long-running vtrpon process.
//
// It wires configuration, playlist storage, the conversion coordinator, the
// HTTP/websocket API and the drop-folder watcher into a single lifecycle with
// flock-based locking to prevent multiple instances writing one playlist.
//
// Keep orchestration logic here: conversion rules live in the conversion
// package while the daemon focuses on startup, shutdown, and status.
package daemon
