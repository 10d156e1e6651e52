package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigWatcherCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 10)
	w, err := NewConfigWatcher([]string{path}, 50*time.Millisecond, func() { fired <- struct{}{} }, quietLogger())
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("a: 2\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-fired:
		t.Fatal("burst of writes reported more than once")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	fired := make(chan struct{}, 1)
	w, err := NewConfigWatcher([]string{path}, 10*time.Millisecond, func() { fired <- struct{}{} }, quietLogger())
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewConfigWatcher([]string{filepath.Join(t.TempDir(), "c.yaml")}, 0, func() {}, quietLogger())
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := w.SetFiles(nil); err == nil {
		t.Fatal("expected error after close")
	}
}
