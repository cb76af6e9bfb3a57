package playlist

import (
	"context"
	"errors"
)

// ErrNotFound reports that no entry carries the requested ID.
var ErrNotFound = errors.New("playlist entry not found")

// Store persists the ordered playlist.
//
// All returns a snapshot in playlist order. Update performs an atomic
// read-modify-write of one entry: it reports found=false without calling fn
// when the entry is absent, and discards the change when fn returns an error.
// The entry ID cannot be changed through Update. RemoveWhere evaluates match
// and deletes the matching entries as one atomic step.
type Store interface {
	All(ctx context.Context) ([]Entry, error)
	ReplaceAll(ctx context.Context, entries []Entry) error
	Get(ctx context.Context, id string) (Entry, error)
	Append(ctx context.Context, entry Entry) error
	Remove(ctx context.Context, id string) (bool, error)
	RemoveWhere(ctx context.Context, match func(Entry) bool) (int, error)
	Update(ctx context.Context, id string, fn func(*Entry) error) (bool, error)
}

// Filter returns the entries currently in state.
func Filter(entries []Entry, state State) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.State() == state {
			out = append(out, entry)
		}
	}
	return out
}
