// Package attach runs a live view session against a running mdview
// daemon and serves the annotated snapshot locally.
package attach

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ziadkadry99/mdview/internal/clipboard"
	"github.com/ziadkadry99/mdview/internal/view"
)

// Options configures an attachment.
type Options struct {
	ServerURL       string // daemon base URL, e.g. http://127.0.0.1:4444
	File            string // markdown filename on the daemon
	RefreshInterval time.Duration
	Clipboard       *clipboard.Copier
}

// Attachment is a view.Session bound to a daemon file, plus the local
// handler exposing it.
type Attachment struct {
	session *view.Session
	file    string
}

type fileHTMLResponse struct {
	FrontmatterHTML string `json:"frontmatter_html"`
	ContentHTML     string `json:"content_html"`
	Modified        int64  `json:"modified"`
}

// New builds the attachment: an initial fetch fills the page, then the
// session keeps it synchronized.
func New(opts Options) (*Attachment, error) {
	base, err := url.Parse(opts.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("attach: server url: %w", err)
	}

	fetch := fetchFunc(base, opts.File)
	initial, err := fetch(context.Background())
	if err != nil {
		return nil, fmt.Errorf("attach: initial fetch: %w", err)
	}

	session, err := view.NewSession(view.Options{
		Page:            viewerPage(opts.File, initial),
		ProbeURL:        base.JoinPath("api", "files").String(),
		Fetch:           fetch,
		RefreshInterval: opts.RefreshInterval,
		Clipboard:       opts.Clipboard,
	})
	if err != nil {
		return nil, err
	}

	a := &Attachment{session: session, file: opts.File}
	session.Start()
	return a, nil
}

// fetchFunc retrieves the rendered fragment for the file from the daemon.
func fetchFunc(base *url.URL, file string) view.FetchFunc {
	endpoint := base.JoinPath("api", "file", file, "html").String()
	client := &http.Client{Timeout: 15 * time.Second}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("daemon answered %s", resp.Status)
		}
		var body fileHTMLResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("decoding daemon response: %w", err)
		}
		return body.FrontmatterHTML + body.ContentHTML, nil
	}
}

// viewerPage builds the attachment's own page shell around the fetched
// content.
func viewerPage(file, content string) string {
	return `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>` + file + `</title></head>
<body>
<button id="` + view.RefreshControlID + `" type="button">Refresh</button>
<div class="` + view.ContentRootClass + `">` + content + `</div>
</body></html>`
}

// Handler exposes the snapshot: GET / serves the current annotated page,
// POST /refresh triggers the manual refresh control, POST /copy?block=N
// activates the Nth copy control.
func (a *Attachment) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		page, err := a.session.HTML()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	})

	r.Post("/refresh", func(w http.ResponseWriter, req *http.Request) {
		a.session.ClickRefresh()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/copy", func(w http.ResponseWriter, req *http.Request) {
		idx, err := strconv.Atoi(req.URL.Query().Get("block"))
		if err != nil {
			http.Error(w, "block query parameter required", http.StatusBadRequest)
			return
		}
		if !a.session.CopyBlock(idx) {
			http.Error(w, "no such code block", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// State reports the session's liveness reading.
func (a *Attachment) State() view.State { return a.session.State() }

// Close stops the session's timers.
func (a *Attachment) Close() { a.session.Stop() }
