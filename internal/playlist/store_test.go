package playlist_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/magcho/vtrpon/internal/playlist"
	"github.com/magcho/vtrpon/internal/testsupport"
)

func storeFactories() map[string]func(t *testing.T) playlist.Store {
	return map[string]func(t *testing.T) playlist.Store{
		"memory": func(t *testing.T) playlist.Store {
			return playlist.NewMemoryStore()
		},
		"sqlite": func(t *testing.T) playlist.Store {
			return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store playlist.Store)) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func TestStoreAppendPreservesOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		var ids []string
		for i := 0; i < 3; i++ {
			entry := playlist.NewPlaceholder(fmt.Sprintf("/decks/%d.pptx", i))
			if err := store.Append(ctx, entry); err != nil {
				t.Fatalf("Append: %v", err)
			}
			ids = append(ids, entry.ID)
		}
		entries, err := store.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for i, entry := range entries {
			if entry.ID != ids[i] {
				t.Fatalf("entry %d has id %s, want %s", i, entry.ID, ids[i])
			}
		}
		if !entries[0].Converting || entries[0].Resolution != playlist.ResolutionConverting {
			t.Fatalf("placeholder flags not persisted: %+v", entries[0])
		}
	})
}

func TestStoreAppendRejectsDuplicateID(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		entry := playlist.NewPlaceholder("/decks/a.pptx")
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := store.Append(ctx, entry); err == nil {
			t.Fatal("expected duplicate id error")
		}
	})
}

func TestStoreGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, playlist.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStoreUpdateMissingSkipsCallback(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		called := false
		found, err := store.Update(context.Background(), "missing", func(*playlist.Entry) error {
			called = true
			return nil
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if found || called {
			t.Fatalf("expected no-op for missing entry, found=%v called=%v", found, called)
		}
	})
}

func TestStoreUpdatePersistsAndKeepsID(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		entry := playlist.NewPlaceholder("/decks/a.pptx")
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
		found, err := store.Update(ctx, entry.ID, func(e *playlist.Entry) error {
			e.ID = "hijacked"
			e.Finalize("/decks/a_video.mp4", playlist.Metadata{Resolution: "1920x1080", Duration: "00:00:03:00"}, "thumb")
			return nil
		})
		if err != nil || !found {
			t.Fatalf("Update found=%v err=%v", found, err)
		}
		got, err := store.Get(ctx, entry.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Path != "/decks/a_video.mp4" || got.OutPoint != "00:00:03:00" || got.State() != playlist.StateReady {
			t.Fatalf("update not persisted: %+v", got)
		}
		if _, err := store.Get(ctx, "hijacked"); !errors.Is(err, playlist.ErrNotFound) {
			t.Fatalf("id should be immutable, got %v", err)
		}
	})
}

func TestStoreUpdateCallbackErrorDiscardsChange(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		entry := playlist.NewPlaceholder("/decks/a.pptx")
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
		sentinel := errors.New("stop")
		found, err := store.Update(ctx, entry.ID, func(e *playlist.Entry) error {
			e.Path = "/changed"
			return sentinel
		})
		if !found || !errors.Is(err, sentinel) {
			t.Fatalf("expected sentinel error, found=%v err=%v", found, err)
		}
		got, err := store.Get(ctx, entry.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Path != "/decks/a.pptx" {
			t.Fatalf("change should be discarded, got path %q", got.Path)
		}
	})
}

func TestStoreRemoveAndReplaceAll(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		a := playlist.NewPlaceholder("/decks/a.pptx")
		b := playlist.NewPlaceholder("/decks/b.pptx")
		for _, entry := range []playlist.Entry{a, b} {
			if err := store.Append(ctx, entry); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		removed, err := store.Remove(ctx, a.ID)
		if err != nil || !removed {
			t.Fatalf("Remove removed=%v err=%v", removed, err)
		}
		removed, err = store.Remove(ctx, a.ID)
		if err != nil || removed {
			t.Fatalf("second Remove removed=%v err=%v", removed, err)
		}

		c := playlist.NewPlaceholder("/decks/c.pptx")
		if err := store.ReplaceAll(ctx, []playlist.Entry{c, b}); err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}
		entries, err := store.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(entries) != 2 || entries[0].ID != c.ID || entries[1].ID != b.ID {
			t.Fatalf("unexpected order after ReplaceAll: %+v", entries)
		}
		if err := store.ReplaceAll(ctx, []playlist.Entry{c, c}); err == nil {
			t.Fatal("expected duplicate id error from ReplaceAll")
		}
	})
}

func TestStoreRemoveWhereKeepsOrderOfSurvivors(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		converting := playlist.NewPlaceholder("/decks/a.pptx")
		ready := playlist.NewPlaceholder("/decks/b.pptx")
		ready.Finalize("/decks/b.mp4", playlist.Metadata{Resolution: "1920x1080", Duration: "00:00:03:00"}, "")
		failed := playlist.NewPlaceholder("/decks/c.pptx")
		failed.MarkFailed("", "boom")
		later := playlist.NewPlaceholder("/decks/d.pptx")
		if err := store.ReplaceAll(ctx, []playlist.Entry{converting, ready, failed, later}); err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}

		removed, err := store.RemoveWhere(ctx, func(e playlist.Entry) bool {
			return e.State() != playlist.StateConverting
		})
		if err != nil {
			t.Fatalf("RemoveWhere: %v", err)
		}
		if removed != 2 {
			t.Fatalf("removed = %d, want 2", removed)
		}
		entries, err := store.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(entries) != 2 || entries[0].ID != converting.ID || entries[1].ID != later.ID {
			t.Fatalf("unexpected survivors: %+v", entries)
		}

		removed, err = store.RemoveWhere(ctx, func(playlist.Entry) bool { return false })
		if err != nil || removed != 0 {
			t.Fatalf("no-op RemoveWhere removed=%d err=%v", removed, err)
		}
	})
}

func TestStoreConcurrentUpdatesDoNotClobber(t *testing.T) {
	forEachStore(t, func(t *testing.T, store playlist.Store) {
		ctx := context.Background()
		const n = 8
		ids := make([]string, n)
		for i := 0; i < n; i++ {
			entry := playlist.NewPlaceholder(fmt.Sprintf("/decks/%d.pptx", i))
			if err := store.Append(ctx, entry); err != nil {
				t.Fatalf("Append: %v", err)
			}
			ids[i] = entry.ID
		}

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, err := store.Update(ctx, id, func(e *playlist.Entry) error {
					e.Finalize(fmt.Sprintf("/decks/%d.mp4", i), playlist.Metadata{Resolution: "1920x1080", Duration: "00:00:01:00"}, "")
					return nil
				})
				errs <- err
			}(i, id)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
		}

		entries, err := store.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		for i, entry := range entries {
			if entry.State() != playlist.StateReady || entry.Path != fmt.Sprintf("/decks/%d.mp4", i) {
				t.Fatalf("entry %d lost its update: %+v", i, entry)
			}
		}
	})
}

func TestSQLiteStoreReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := playlist.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry := playlist.NewPlaceholder("/decks/a.pptx")
	entry.SlideSeconds = "3"
	entry.MarkFailed("err-thumb", "automation failed")
	if err := store.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	got, err := reopened.Get(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State() != playlist.StateError || got.Thumbnail != "err-thumb" || got.ErrorMessage != "automation failed" {
		t.Fatalf("unexpected reopened entry: %+v", got)
	}
	if got.SlideSeconds != "3" {
		t.Fatalf("slide seconds not persisted: %q", got.SlideSeconds)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not persisted: %+v", got)
	}
}

func TestSQLiteStoreMigratesVersionOneDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := playlist.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry := playlist.NewPlaceholder("/decks/old.pptx")
	if err := store.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.PlaylistDBPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	for _, stmt := range []string{
		"ALTER TABLE playlist_entries DROP COLUMN slide_seconds",
		"UPDATE schema_version SET version = 1",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	_ = db.Close()

	migrated := testsupport.MustOpenStore(t, cfg)
	found, err := migrated.Update(context.Background(), entry.ID, func(e *playlist.Entry) error {
		e.SlideSeconds = "2"
		return nil
	})
	if err != nil || !found {
		t.Fatalf("Update after migration found=%v err=%v", found, err)
	}
	got, err := migrated.Get(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SlideSeconds != "2" || got.Path != "/decks/old.pptx" {
		t.Fatalf("unexpected migrated entry: %+v", got)
	}
}
