package history

import (
	"path/filepath"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	for _, p := range []string{"a.md", "b.md", "a.md"} {
		if err := s.RecordView(p); err != nil {
			t.Fatalf("RecordView(%s): %v", p, err)
		}
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 deduplicated paths", len(entries))
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Path] = true
		if e.ViewedAt.IsZero() {
			t.Errorf("entry %s has zero timestamp", e.Path)
		}
	}
	if !seen["a.md"] || !seen["b.md"] {
		t.Errorf("recent paths = %v, want a.md and b.md", seen)
	}
}

func TestRecentRejectsCorruptTimestamp(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if _, err := s.db.Exec(`INSERT INTO views (path, viewed_at) VALUES ('a.md', 'garbage')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Recent(10); err == nil {
		t.Error("expected error for an unparseable timestamp")
	}
}

func TestRecentLimit(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if err := s.RecordView(p); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}
	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries with limit 2", len(entries))
	}
}

func TestCounts(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	for _, p := range []string{"a.md", "a.md", "b.md"} {
		if err := s.RecordView(p); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}
	counts, err := s.Counts()
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["a.md"] != 2 || counts["b.md"] != 1 {
		t.Errorf("counts = %v, want a.md:2 b.md:1", counts)
	}
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.RecordView("a.md"); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	entries, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "a.md" {
		t.Errorf("entries = %v, want one a.md", entries)
	}
}
