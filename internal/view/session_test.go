package view

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/mdview/internal/clipboard"
)

func newTestSession(t *testing.T, fetch FetchFunc) *Session {
	t.Helper()
	s, err := NewSession(Options{
		Page:      testPage,
		ProbeURL:  "http://127.0.0.1:1/api/files",
		Fetch:     fetch,
		Clipboard: clipboard.NewWith(func(string) error { return nil }, nil),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestNewSessionRejectsPageWithoutRoot(t *testing.T) {
	_, err := NewSession(Options{Page: `<html><body><p>bare</p></body></html>`})
	if err == nil {
		t.Fatal("session accepted a page without a content root")
	}
}

func TestNewSessionAnnotatesInitialContent(t *testing.T) {
	s, err := NewSession(Options{
		Page:      contentPage(`<p>[ab12]</p><pre><code>x</code></pre>`),
		Clipboard: clipboard.NewWith(func(string) error { return nil }, nil),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer s.Stop()

	out, err := s.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, RefTokenClass) {
		t.Error("initial content not token-annotated")
	}
	if !strings.Contains(out, CopyButtonClass) {
		t.Error("initial content has no copy button")
	}
}

func TestRefreshSwapsContentAndReannotates(t *testing.T) {
	content := `<p>first version</p>`
	s := newTestSession(t, func(ctx context.Context) (string, error) {
		return content, nil
	})

	content = `<p>second version [ab12]</p><pre><code>new block</code></pre>`
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	out, err := s.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "hello") {
		t.Error("old content survived refresh")
	}
	if !strings.Contains(out, "second version") {
		t.Error("new content missing after refresh")
	}
	if !strings.Contains(out, RefTokenClass) || !strings.Contains(out, CopyButtonClass) {
		t.Error("refreshed content not annotated")
	}
}

func TestRefreshPreservesBanner(t *testing.T) {
	s := newTestSession(t, func(ctx context.Context) (string, error) {
		return `<p>fresh</p>`, nil
	})

	s.monitor.Observe(false)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	s.mu.Lock()
	banner := Banner(s.doc)
	s.mu.Unlock()
	if banner == nil {
		t.Error("disconnect banner lost across a content refresh")
	}
}

func TestRefreshFetchError(t *testing.T) {
	s := newTestSession(t, func(ctx context.Context) (string, error) {
		return "", errFailed
	})
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("refresh swallowed a fetch failure")
	}

	// The previous content must be untouched on a failed refresh.
	out, err := s.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Error("failed refresh discarded existing content")
	}
}

func TestStartArmsSchedulerRepeatedly(t *testing.T) {
	s := newTestSession(t, func(ctx context.Context) (string, error) {
		return `<p>fresh</p>`, nil
	})
	s.scheduler.probeInterval = time.Hour

	s.Start()
	s.scheduler.mu.Lock()
	old := s.scheduler.probeHandle
	s.scheduler.mu.Unlock()

	s.Start()
	s.scheduler.mu.Lock()
	current := s.scheduler.probeHandle
	s.scheduler.mu.Unlock()

	if !old.stopped() {
		t.Error("first probe handle still live after restart")
	}
	if current == old {
		t.Error("restart did not arm a fresh probe handle")
	}
}

func TestCopyBlock(t *testing.T) {
	var copied string
	s, err := NewSession(Options{
		Page: contentPage(`<pre><code>alpha</code></pre><pre><code>beta</code></pre>`),
		Clipboard: clipboard.NewWith(func(text string) error {
			copied = text
			return nil
		}, nil),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer s.Stop()
	s.pipeline.feedbackFor = time.Hour

	if !s.CopyBlock(1) {
		t.Fatal("CopyBlock(1) found no control")
	}
	if copied != "beta" {
		t.Errorf("copied %q, want second block text", copied)
	}
	if s.CopyBlock(2) {
		t.Error("CopyBlock reported success past the last block")
	}
	if s.CopyBlock(-1) {
		t.Error("CopyBlock reported success for a negative index")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := newTestSession(t, nil)
	b := newTestSession(t, nil)
	if a.ID == b.ID {
		t.Error("two sessions share an ID")
	}
}
