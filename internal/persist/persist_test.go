package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/1broseidon/docktile/internal/layout"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSnapshot(t *testing.T) layout.Snapshot {
	t.Helper()
	tmpl := layout.Template{
		ID:    "root",
		Split: layout.Horizontal,
		Children: []layout.Template{
			{ID: "left", Size: 30, Views: []string{"library", "albums"}, Active: "albums", LockedViews: []string{"library"}},
			{ID: "right", Size: 70, Split: layout.Vertical, Locked: true, Children: []layout.Template{
				{ID: "viewer", Size: 62.5, Views: []string{"viewer"}},
				{ID: "meta", Size: 37.5, Views: []string{"metadata", "tags"}, Locked: true},
			}},
		},
	}
	root, err := tmpl.Build(func() string { return "unused" })
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ws := layout.New(root)
	ws.ToggleMaximize("viewer")
	ws.ActivateTab("tags")
	return ws.Snapshot()
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	file, err := NewFileStore(filepath.Join(dir, "layouts"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	db, err := NewSQLiteStore(filepath.Join(dir, "layouts.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		BackendFile:   file,
		BackendSQLite: db,
		BackendMemory: NewMemoryStore(),
	}
}

func TestRoundTripAllStoresAndCodecs(t *testing.T) {
	ctx := context.Background()
	want := sampleSnapshot(t)
	for storeName, store := range openStores(t) {
		for _, codec := range []Codec{JSONCodec{}, CBORCodec{}} {
			t.Run(storeName+"/"+codec.Name(), func(t *testing.T) {
				a := NewAdapter(store, codec, "")
				if err := a.Save(ctx, want); err != nil {
					t.Fatalf("Save: %v", err)
				}
				got, found, err := a.Load(ctx)
				if err != nil || !found {
					t.Fatalf("Load = found %v, err %v", found, err)
				}
				if !reflect.DeepEqual(got, want) {
					t.Fatalf("snapshot mismatch:\n got %+v\nwant %+v", got, want)
				}
				ws, dropped, err := layout.Restore(got, nil)
				if err != nil || dropped != 0 {
					t.Fatalf("Restore: dropped %d, err %v", dropped, err)
				}
				if !reflect.DeepEqual(ws.Snapshot(), want) {
					t.Fatal("restored workspace differs from the saved one")
				}
			})
		}
	}
}

func TestLoadNotFound(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		a := NewAdapter(store, nil, "missing")
		_, found, err := a.Load(ctx)
		if err != nil || found {
			t.Fatalf("%s: Load = found %v, err %v; want not found", name, found, err)
		}
		if err := a.Clear(ctx); err != nil {
			t.Fatalf("%s: Clear of missing key: %v", name, err)
		}
		if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: Get err = %v, want ErrNotFound", name, err)
		}
	}
}

func TestStoreKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		for _, k := range []string{"b", "a"} {
			if err := store.Put(ctx, k, []byte("x")); err != nil {
				t.Fatalf("%s: Put: %v", name, err)
			}
		}
		keys, err := store.Keys(ctx)
		if err != nil || !reflect.DeepEqual(keys, []string{"a", "b"}) {
			t.Fatalf("%s: Keys = %v, %v", name, keys, err)
		}
		if err := store.Delete(ctx, "a"); err != nil {
			t.Fatalf("%s: Delete: %v", name, err)
		}
		if err := store.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: second Delete err = %v", name, err)
		}
	}
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"", "../x", "a/b", ".."} {
		if err := store.Put(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", key)
		}
	}
}

func TestLoadToleratesCommentsAndOtherCodec(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	blob := []byte(`// saved by hand
{
  "version": 1,
  "root": {"kind": "group", "id": "g", "size": 50, "views": [{"id": "viewer"},],},
}`)
	if err := store.Put(ctx, DefaultKey, blob); err != nil {
		t.Fatalf("Put: %v", err)
	}
	a := NewAdapter(store, CBORCodec{}, "")
	snap, found, err := a.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load = found %v, err %v", found, err)
	}
	if snap.Root == nil || snap.Root.ID != "g" || len(snap.Root.Views) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestRehydrate(t *testing.T) {
	ctx := context.Background()
	fallback := func() layout.Node {
		return &layout.TabGroup{ID: "default", Views: []layout.ViewRef{{ID: "library"}}, ActiveViewID: "library", Size: 50}
	}

	t.Run("first run uses default", func(t *testing.T) {
		a := NewAdapter(NewMemoryStore(), nil, "")
		ws, rep := Rehydrate(ctx, a, nil, fallback)
		if rep.Source != SourceDefault || ws.Root().NodeID() != "default" {
			t.Fatalf("report = %+v root = %v", rep, ws.Root())
		}
	})

	t.Run("garbage falls back", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, DefaultKey, []byte("{not json"))
		ws, rep := Rehydrate(ctx, NewAdapter(store, nil, ""), nil, fallback)
		if rep.Source != SourceFallback || rep.Err == nil || ws.Root().NodeID() != "default" {
			t.Fatalf("report = %+v", rep)
		}
	})

	t.Run("broken tree falls back", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, DefaultKey, []byte(`{"version":1,"root":{"kind":"pane","id":"x"}}`))
		_, rep := Rehydrate(ctx, NewAdapter(store, nil, ""), nil, fallback)
		if rep.Source != SourceFallback {
			t.Fatalf("report = %+v, want fallback", rep)
		}
	})

	t.Run("unknown views dropped", func(t *testing.T) {
		a := NewAdapter(NewMemoryStore(), CBORCodec{}, "")
		if err := a.Save(ctx, sampleSnapshot(t)); err != nil {
			t.Fatalf("Save: %v", err)
		}
		known := func(id string) bool { return id != "viewer" }
		ws, rep := Rehydrate(ctx, a, known, fallback)
		if rep.Source != SourceStored || rep.Dropped != 1 {
			t.Fatalf("report = %+v", rep)
		}
		if ws.Group("viewer") != nil {
			t.Fatal("group emptied by rehydration should be pruned")
		}
		if ws.MaximizedGroupID() != "" {
			t.Fatal("maximized pointer to a pruned group should be cleared")
		}
		if err := ws.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})
}

func TestSaverCoalescesAndSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSaver(NewAdapter(store, nil, ""), time.Hour, quietLogger())

	snap := sampleSnapshot(t)
	s.Schedule(layout.Snapshot{Version: 1})
	s.Schedule(snap)
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if writes, _ := s.Stats(); writes != 1 {
		t.Fatalf("writes = %d, want 1", writes)
	}
	got, _, err := NewAdapter(store, nil, "").Load(ctx)
	if err != nil || !reflect.DeepEqual(got, snap) {
		t.Fatalf("stored snapshot = %+v, err %v; want the last scheduled", got, err)
	}

	s.Schedule(snap)
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if writes, skipped := s.Stats(); writes != 1 || skipped != 1 {
		t.Fatalf("stats = %d writes, %d skipped; want 1, 1", writes, skipped)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("empty Flush: %v", err)
	}
}

func TestSaverDebounceFires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSaver(NewAdapter(store, nil, ""), 10*time.Millisecond, quietLogger())
	s.Schedule(sampleSnapshot(t))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := store.Get(ctx, DefaultKey); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced write never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSaverCloseFlushes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSaver(NewAdapter(store, nil, ""), time.Hour, quietLogger())
	s.Schedule(sampleSnapshot(t))
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := store.Get(ctx, DefaultKey); err != nil {
		t.Fatalf("Get after Close: %v", err)
	}
	s.Schedule(layout.Snapshot{Version: 1})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if writes, _ := s.Stats(); writes != 1 {
		t.Fatalf("writes after close = %d, want 1", writes)
	}
}

// flakyStore fails every Put while down is set.
type flakyStore struct {
	*MemoryStore
	down bool
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte) error {
	if f.down {
		return errors.New("disk full")
	}
	return f.MemoryStore.Put(ctx, key, data)
}

func TestSaverBehindAfterFailedWrite(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), down: true}
	s := NewSaver(NewAdapter(store, nil, ""), time.Hour, quietLogger())
	if s.Behind() {
		t.Fatal("fresh saver reports behind")
	}

	s.Schedule(sampleSnapshot(t))
	if err := s.Flush(ctx); err == nil {
		t.Fatal("Flush succeeded on a failing store")
	}
	if !s.Behind() {
		t.Fatal("Behind = false after a failed write")
	}

	// A queued snapshot will retry on its own.
	s.Schedule(sampleSnapshot(t))
	if s.Behind() {
		t.Fatal("Behind = true with a snapshot pending")
	}

	store.down = false
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s.Behind() {
		t.Fatal("Behind = true after a successful write")
	}
	if writes, _ := s.Stats(); writes != 1 {
		t.Fatalf("writes = %d, want 1", writes)
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "cbor"} {
		if _, err := CodecByName(name); err != nil {
			t.Errorf("CodecByName(%q): %v", name, err)
		}
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Error("CodecByName(xml) succeeded")
	}
	if _, err := Open("s3", ""); err == nil {
		t.Error("Open(s3) succeeded")
	}
}
