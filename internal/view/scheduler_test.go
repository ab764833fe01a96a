package view

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T, page string, refreshInterval time.Duration) (*Scheduler, *Monitor) {
	t.Helper()
	doc := mustParse(t, page)
	m := NewMonitor("", doc, nil)
	m.probe = func(ctx context.Context) bool { return true }
	s := NewScheduler(doc, m, refreshInterval, nil)
	s.probeInterval = time.Hour // keep the probe timer out of timing tests
	t.Cleanup(s.Stop)
	return s, m
}

func TestInitializeArmsHandles(t *testing.T) {
	s, _ := newTestScheduler(t, testPage, time.Hour)

	s.Initialize(func() {})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshHandle == nil {
		t.Error("refresh handle not armed")
	}
	if s.probeHandle == nil {
		t.Error("probe handle not armed")
	}
	if s.manual == nil {
		t.Error("manual control not wired despite refresh-button in page")
	}
}

func TestInitializeZeroIntervalIsManualOnly(t *testing.T) {
	s, _ := newTestScheduler(t, testPage, 0)

	s.Initialize(func() {})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshHandle != nil {
		t.Error("refresh handle armed despite zero interval")
	}
	if s.probeHandle == nil {
		t.Error("probe handle must run even in manual-only mode")
	}
	if s.manual == nil {
		t.Error("manual refresh unavailable in manual-only mode")
	}
}

func TestReinitializeCancelsPreviousHandles(t *testing.T) {
	s, _ := newTestScheduler(t, testPage, time.Hour)

	s.Initialize(func() {})
	s.mu.Lock()
	oldRefresh, oldProbe := s.refreshHandle, s.probeHandle
	s.mu.Unlock()

	s.Initialize(func() {})
	s.mu.Lock()
	newRefresh, newProbe := s.refreshHandle, s.probeHandle
	s.mu.Unlock()

	if !oldRefresh.stopped() || !oldProbe.stopped() {
		t.Error("previous handles still live after re-initialization")
	}
	if newRefresh == oldRefresh || newProbe == oldProbe {
		t.Error("re-initialization reused old handles instead of arming fresh ones")
	}
	if newRefresh.stopped() || newProbe.stopped() {
		t.Error("fresh handles armed in stopped state")
	}
}

func TestReinitializeDoesNotStackFirings(t *testing.T) {
	s, _ := newTestScheduler(t, testPage, 25*time.Millisecond)

	var fired atomic.Int64
	tick := func() { fired.Add(1) }

	// Initialize many times in a row. If cancel-before-arm were broken,
	// timers would accumulate and the firing rate would multiply.
	for i := 0; i < 10; i++ {
		s.Initialize(tick)
	}

	time.Sleep(130 * time.Millisecond)
	s.Stop()

	got := fired.Load()
	if got == 0 {
		t.Fatal("armed refresh timer never fired")
	}
	// One 25ms timer over 130ms fires about 5 times. Ten stacked timers
	// would fire about 50. Anything under 15 proves a single timer.
	if got > 15 {
		t.Errorf("refresh fired %d times, want single-timer rate", got)
	}
}

func TestInitializeRunsImmediateProbe(t *testing.T) {
	doc := mustParse(t, testPage)
	m := NewMonitor("", doc, nil)

	probed := make(chan struct{}, 1)
	m.probe = func(ctx context.Context) bool {
		select {
		case probed <- struct{}{}:
		default:
		}
		return true
	}

	s := NewScheduler(doc, m, 0, nil)
	s.probeInterval = time.Hour
	defer s.Stop()
	s.Initialize(func() {})

	select {
	case <-probed:
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate probe after initialization")
	}
}

func TestClickRefreshRunsCallbackAndSpins(t *testing.T) {
	doc := mustParse(t, testPage)
	m := NewMonitor("", doc, nil)
	m.probe = func(ctx context.Context) bool { return true }

	var docLock sync.Mutex
	s := NewScheduler(doc, m, 0, &docLock)
	s.probeInterval = time.Hour
	s.rotateFor = 10 * time.Millisecond
	defer s.Stop()

	var fired atomic.Int64
	s.Initialize(func() { fired.Add(1) })

	s.ClickRefresh()
	if fired.Load() != 1 {
		t.Fatalf("callback fired %d times, want 1", fired.Load())
	}

	control := FindByID(doc, RefreshControlID)
	if control == nil {
		t.Fatal("refresh control missing")
	}
	docLock.Lock()
	spinning := HasClass(control, spinClass)
	docLock.Unlock()
	if !spinning {
		t.Error("rotation cue not applied on manual refresh")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		docLock.Lock()
		spinning = HasClass(control, spinClass)
		docLock.Unlock()
		if !spinning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("rotation cue never reset")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReinitializeWhileProbeMutatesTree(t *testing.T) {
	doc := mustParse(t, testPage)
	var docLock sync.Mutex
	m := NewMonitor("", doc, &docLock)

	// Alternate outcomes so every immediate probe flips the banner and
	// mutates the tree while the next Initialize walks it.
	var flips atomic.Int64
	m.probe = func(ctx context.Context) bool {
		return flips.Add(1)%2 == 0
	}

	s := NewScheduler(doc, m, 0, &docLock)
	s.probeInterval = time.Hour
	defer s.Stop()

	for i := 0; i < 50; i++ {
		s.Initialize(func() {})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manual == nil {
		t.Error("manual control lost across re-initializations")
	}
}

func TestClickRefreshWithoutControl(t *testing.T) {
	page := `<html><body><div class="markdown-body"></div></body></html>`
	s, _ := newTestScheduler(t, page, 0)

	var fired atomic.Int64
	s.Initialize(func() { fired.Add(1) })

	s.ClickRefresh() // no control, must be a silent no-op
	if fired.Load() != 0 {
		t.Errorf("callback fired %d times without a manual control", fired.Load())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t, testPage, time.Hour)
	s.Initialize(func() {})
	s.Stop()
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshHandle != nil || s.probeHandle != nil {
		t.Error("handles survived Stop")
	}
}
