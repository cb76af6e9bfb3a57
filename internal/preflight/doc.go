// Package preflight provides readiness checks for the directories, external
// programs and push-notification endpoint vtrpon depends on.
//
// The daemon runs RunAll before serving and refuses to start when a required
// directory is unusable. The CLI "vtrpon deps" command prints the same
// results as a table.
package preflight
