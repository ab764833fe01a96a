package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherReportsMarkdownChange(t *testing.T) {
	dir := t.TempDir()
	w, err := newWith(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ch := w.Subscribe()
	writeFile(t, filepath.Join(dir, "notes.md"), "# hi")

	select {
	case ev := <-ch:
		if filepath.Base(ev.Path) != "notes.md" {
			t.Errorf("event path = %q, want notes.md", ev.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event for a markdown write")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := newWith(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ch := w.Subscribe()
	writeFile(t, filepath.Join(dir, "binary.png"), "xx")
	writeFile(t, filepath.Join(dir, ".hidden.md"), "# h")

	select {
	case ev := <-ch:
		t.Errorf("unexpected event for %q", ev.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := newWith(dir, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ch := w.Subscribe()
	path := filepath.Join(dir, "burst.md")
	for i := 0; i < 5; i++ {
		writeFile(t, path, "# rev")
		time.Sleep(10 * time.Millisecond)
	}

	got := 0
	deadline := time.After(time.Second)
	for {
		select {
		case <-ch:
			got++
		case <-deadline:
			if got != 1 {
				t.Errorf("got %d events for one burst, want 1", got)
			}
			return
		}
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ch := w.Subscribe()
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	select {
	case _, open := <-ch:
		if open {
			t.Error("subscriber channel delivered after close")
		}
	case <-time.After(time.Second):
		t.Error("subscriber channel not closed")
	}
}
