package testsupport

import (
	"testing"

	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/playlist"
)

// MustOpenStore opens the playlist database for the given config and
// registers cleanup with the test harness.
func MustOpenStore(t testing.TB, cfg *config.Config) *playlist.SQLiteStore {
	t.Helper()

	store, err := playlist.Open(cfg)
	if err != nil {
		t.Fatalf("playlist.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
