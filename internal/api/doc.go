// Package api exposes the playlist over HTTP and pushes playlist snapshots and
// operator alerts to websocket subscribers.
//
// Server wraps a gin engine around a Controller (normally the conversion
// coordinator). Hub implements the coordinator's Refresher and Alerter hooks
// by broadcasting JSON events to every connected websocket client. Client is
// the CLI side of the same routes.
package api
