package view

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/mdview/internal/clipboard"
)

// FetchFunc retrieves the current rendered body for the session's source,
// as an HTML fragment to install under the content root.
type FetchFunc func(ctx context.Context) (string, error)

// Options configures a live view session.
type Options struct {
	// Page is the full HTML page the session owns. It must contain an
	// element with the content root class.
	Page string

	// ProbeURL is probed to decide server liveness.
	ProbeURL string

	// Fetch retrieves fresh content on every refresh.
	Fetch FetchFunc

	// RefreshInterval is the periodic refresh cadence. Zero disables
	// timed refreshes; manual refresh still works.
	RefreshInterval time.Duration

	// Clipboard handles copy activations. When nil a system adapter
	// is built.
	Clipboard *clipboard.Copier
}

// Session is a live view over one document: it owns the parsed page tree
// and coordinates refreshes, liveness display, and content annotation.
// All tree access goes through the session mutex.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	doc       *html.Node
	fetch     FetchFunc
	pipeline  *Pipeline
	monitor   *Monitor
	scheduler *Scheduler
}

// NewSession parses the page and wires up the session's collaborators.
// Nothing runs until Start.
func NewSession(opts Options) (*Session, error) {
	doc, err := ParseDocument(opts.Page)
	if err != nil {
		return nil, fmt.Errorf("session: parse page: %w", err)
	}
	if FindByClass(doc, ContentRootClass) == nil {
		return nil, fmt.Errorf("session: page has no element with class %q", ContentRootClass)
	}

	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.New()
	}

	s := &Session{
		ID:    uuid.New(),
		doc:   doc,
		fetch: opts.Fetch,
	}
	s.pipeline = NewPipeline(clip, &s.mu)
	s.monitor = NewMonitor(opts.ProbeURL, doc, &s.mu)
	s.scheduler = NewScheduler(doc, s.monitor, opts.RefreshInterval, &s.mu)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pipeline.Annotate(doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Start arms the refresh and probe timers and fires an immediate probe.
// Calling Start again re-initializes cleanly: the previous timers are
// cancelled before the new ones are armed.
func (s *Session) Start() {
	s.scheduler.Initialize(func() {
		if err := s.Refresh(context.Background()); err != nil {
			log.Printf("session %s: refresh: %v", s.ID, err)
		}
	})
}

// Refresh fetches fresh content, swaps it in under the content root, and
// re-annotates. The rest of the page, the connection banner included,
// survives the swap.
func (s *Session) Refresh(ctx context.Context) error {
	if s.fetch == nil {
		return nil
	}
	fragment, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("session: fetch content: %w", err)
	}
	nodes, err := ParseFragment(fragment)
	if err != nil {
		return fmt.Errorf("session: parse content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	root := FindByClass(s.doc, ContentRootClass)
	if root == nil {
		return fmt.Errorf("session: page has no element with class %q", ContentRootClass)
	}
	RemoveChildren(root)
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return s.pipeline.Annotate(s.doc)
}

// ClickRefresh triggers the same path as the page's manual refresh
// control, rotation cue included.
func (s *Session) ClickRefresh() {
	s.scheduler.ClickRefresh()
}

// CopyBlock activates the copy control of the i-th code block on the
// page, in document order. It reports whether such a control exists.
func (s *Session) CopyBlock(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	buttons := FindAllByClass(s.doc, CopyButtonClass)
	if i < 0 || i >= len(buttons) {
		return false
	}
	s.pipeline.ActivateCopy(buttons[i])
	return true
}

// HTML renders the session's current page.
func (s *Session) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RenderHTML(s.doc)
}

// State reports the monitor's current liveness reading.
func (s *Session) State() State {
	return s.monitor.State()
}

// Stop cancels the session's timers. The tree stays readable.
func (s *Session) Stop() {
	s.scheduler.Stop()
}
