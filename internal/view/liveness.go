package view

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/net/html"
)

// State is the two-state reachability model for the content server.
type State int

const (
	StateUp State = iota
	StateDown
)

func (s State) String() string {
	if s == StateDown {
		return "down"
	}
	return "up"
}

// Monitor tracks server reachability and drives the disconnect banner. The
// banner side effect fires at most once per actual transition: repeated
// observations of the same state are no-ops.
type Monitor struct {
	probeURL string
	client   *http.Client
	docLock  sync.Locker

	// probe is replaceable in tests.
	probe func(ctx context.Context) bool

	mu    sync.Mutex
	state State
	doc   *html.Node
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// NewMonitor builds a monitor probing the given URL and reflecting state
// into doc. docLock guards tree mutation; pass nil when the tree has a
// single owner.
func NewMonitor(probeURL string, doc *html.Node, docLock sync.Locker) *Monitor {
	if docLock == nil {
		docLock = nopLocker{}
	}
	m := &Monitor{
		probeURL: probeURL,
		client:   http.DefaultClient,
		docLock:  docLock,
		state:    StateUp,
		doc:      doc,
	}
	m.probe = m.httpProbe
	return m
}

// State returns the current reachability state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Probe performs a single no-cache liveness check. Every transport failure
// is swallowed into false; a reply below 500 proves the server is alive.
func (m *Monitor) Probe(ctx context.Context) bool {
	return m.probe(ctx)
}

func (m *Monitor) httpProbe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Check probes once and folds the outcome into the state machine.
func (m *Monitor) Check(ctx context.Context) {
	m.Observe(m.Probe(ctx))
}

// Observe feeds one probe outcome into the state machine. Only the
// UP->DOWN and DOWN->UP transitions have side effects.
func (m *Monitor) Observe(up bool) {
	m.mu.Lock()
	var show, hide bool
	switch {
	case !up && m.state == StateUp:
		m.state = StateDown
		show = true
	case up && m.state == StateDown:
		m.state = StateUp
		hide = true
	}
	m.mu.Unlock()

	if show {
		m.docLock.Lock()
		ShowBanner(m.doc)
		m.docLock.Unlock()
	}
	if hide {
		m.docLock.Lock()
		HideBanner(m.doc)
		m.docLock.Unlock()
	}
}
