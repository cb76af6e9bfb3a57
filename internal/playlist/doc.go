// Package playlist owns the playlist entry model and its persistence.
//
// An Entry moves through three states: converting (a placeholder waiting for
// its video), ready (a playable video with metadata), and error (the
// conversion failed and the entry is marked media-offline). The transition
// methods on Entry are the only code that flips those flags, so every store
// and caller observes the same invariants.
//
// Stores expose ordered snapshot reads plus atomic Update and RemoveWhere
// primitives keyed by the entry's stable ID. SQLiteStore persists to a
// WAL-mode SQLite database and backs both the daemon and local CLI runs.
// MemoryStore keeps the same semantics in process and is only used by tests.
package playlist
