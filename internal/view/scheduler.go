package view

import (
	"context"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// DefaultProbeInterval is the fixed liveness probe cadence.
const DefaultProbeInterval = 5 * time.Second

// RefreshControlID identifies the optional manual refresh control.
const RefreshControlID = "refresh-button"

// spinClass marks the refresh control while its rotation cue plays.
const spinClass = "spinning"

// defaultRotateFor bounds the rotation cue on manual refresh.
const defaultRotateFor = 500 * time.Millisecond

// handle is one owned recurring timer. Stopping it is idempotent.
type handle struct {
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func newHandle(interval time.Duration, fire func()) *handle {
	h := &handle{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.ticker.C:
				fire()
			case <-h.done:
				return
			}
		}
	}()
	return h
}

func (h *handle) stop() {
	h.stopOnce.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}

func (h *handle) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Scheduler owns the view's recurring refresh timer and liveness probe
// timer, plus the manual refresh control. Initialize may be called any
// number of times over a view's lifetime; each call cancels the previous
// handle pair before arming new ones, so re-initialization never leaks
// timers or stacks duplicate firings.
type Scheduler struct {
	monitor         *Monitor
	doc             *html.Node
	docLock         sync.Locker
	refreshInterval time.Duration // 0 disables periodic refresh
	probeInterval   time.Duration
	rotateFor       time.Duration

	mu            sync.Mutex
	refreshHandle *handle
	probeHandle   *handle
	manual        func()
}

// NewScheduler builds a scheduler for the given document. A zero
// refreshInterval means manual-only mode: no periodic refresh is armed,
// but the liveness probe runs regardless. docLock guards the rotation cue
// mutations; pass nil when the tree has a single owner.
func NewScheduler(doc *html.Node, monitor *Monitor, refreshInterval time.Duration, docLock sync.Locker) *Scheduler {
	if docLock == nil {
		docLock = nopLocker{}
	}
	return &Scheduler{
		monitor:         monitor,
		doc:             doc,
		docLock:         docLock,
		refreshInterval: refreshInterval,
		probeInterval:   DefaultProbeInterval,
		rotateFor:       defaultRotateFor,
	}
}

// Initialize cancels any previously armed handles, then arms the refresh
// timer (when configured), arms the probe timer, performs one immediate
// probe, and wires the manual refresh control when present. Errors from
// refresh are not caught here: the callback owns its own failure handling.
func (s *Scheduler) Initialize(refresh func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cancel before arm. Without this, repeated initialization would
	// accumulate timers that keep firing after a logical restart.
	if s.refreshHandle != nil {
		s.refreshHandle.stop()
		s.refreshHandle = nil
	}
	if s.probeHandle != nil {
		s.probeHandle.stop()
		s.probeHandle = nil
	}

	if s.refreshInterval > 0 {
		s.refreshHandle = newHandle(s.refreshInterval, refresh)
	}

	s.probeHandle = newHandle(s.probeInterval, func() {
		s.monitor.Check(context.Background())
	})

	// The control lookup reads the tree, so it happens under docLock and
	// before the immediate probe, whose observation may mutate the tree.
	s.manual = nil
	s.docLock.Lock()
	control := FindByID(s.doc, RefreshControlID)
	s.docLock.Unlock()
	if control != nil {
		s.manual = func() {
			refresh()
			s.spin(control)
		}
	}

	go s.monitor.Check(context.Background())
}

// ClickRefresh activates the manual refresh control. Without a control in
// the view, manual refresh is simply unavailable and this is a no-op.
func (s *Scheduler) ClickRefresh() {
	s.mu.Lock()
	manual := s.manual
	s.mu.Unlock()
	if manual != nil {
		manual()
	}
}

// spin plays the bounded rotation cue on the control and self-resets.
func (s *Scheduler) spin(control *html.Node) {
	s.docLock.Lock()
	AddClass(control, spinClass)
	s.docLock.Unlock()
	time.AfterFunc(s.rotateFor, func() {
		s.docLock.Lock()
		defer s.docLock.Unlock()
		RemoveClass(control, spinClass)
	})
}

// Stop cancels both handles. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshHandle != nil {
		s.refreshHandle.stop()
		s.refreshHandle = nil
	}
	if s.probeHandle != nil {
		s.probeHandle.stop()
		s.probeHandle = nil
	}
	s.manual = nil
}
