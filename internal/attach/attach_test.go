package attach

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/mdview/internal/clipboard"
)

// contentBox hands the fake daemon its current body without racing the
// test goroutine.
type contentBox struct {
	mu   sync.Mutex
	html string
}

func (c *contentBox) set(html string) {
	c.mu.Lock()
	c.html = html
	c.mu.Unlock()
}

func (c *contentBox) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

// fakeDaemon serves the two endpoints an attachment needs.
func fakeDaemon(t *testing.T, content *contentBox) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files":[]}`))
	})
	mux.HandleFunc("/api/file/doc.md/html", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"frontmatter_html": "",
			"content_html":     content.get(),
			"modified":         1,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAttachment(t *testing.T, content *contentBox) *Attachment {
	t.Helper()
	daemon := fakeDaemon(t, content)
	a, err := New(Options{
		ServerURL: daemon.URL,
		File:      "doc.md",
		Clipboard: clipboard.NewWith(func(string) error { return nil }, nil),
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestAttachServesAnnotatedSnapshot(t *testing.T) {
	content := &contentBox{html: `<p>See [ab12]</p><pre><code>x</code></pre>`}
	a := newTestAttachment(t, content)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	for _, want := range []string{"ref-token", "copy-button", "refresh-button"} {
		if !strings.Contains(page, want) {
			t.Errorf("snapshot missing %q", want)
		}
	}
}

func TestAttachRefreshPullsNewContent(t *testing.T) {
	content := &contentBox{html: `<p>first</p>`}
	a := newTestAttachment(t, content)

	content.set(`<p>second</p>`)
	req := httptest.NewRequest("POST", "/refresh", nil)
	w := httptest.NewRecorder()
	h := a.Handler()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("refresh: expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), "second") {
		t.Error("snapshot still shows stale content after refresh")
	}
	if strings.Contains(w.Body.String(), "first") {
		t.Error("old content survived refresh")
	}
}

func TestAttachCopyBlock(t *testing.T) {
	content := &contentBox{html: `<pre><code>alpha</code></pre>`}
	a := newTestAttachment(t, content)
	h := a.Handler()

	req := httptest.NewRequest("POST", "/copy?block=0", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("copy block 0: expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/copy?block=9", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("copy past last block: expected 404, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/copy", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("copy without block: expected 400, got %d", w.Code)
	}
}

func TestAttachRejectsUnreachableDaemon(t *testing.T) {
	_, err := New(Options{
		ServerURL: "http://127.0.0.1:1",
		File:      "doc.md",
		Clipboard: clipboard.NewWith(func(string) error { return nil }, nil),
	})
	if err == nil {
		t.Fatal("attach succeeded without a daemon")
	}
}
