// Package notifications delivers conversion events as ntfy push messages.
//
// The default implementation publishes to the ntfy topic configured in
// config.toml and degrades to a no-op when no topic is set. The conversion
// coordinator depends only on the small Service interface, so alternative
// transports can be added here without touching it.
package notifications
