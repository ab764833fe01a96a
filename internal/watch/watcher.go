// Package watch notifies subscribers when markdown files under the served
// directory change.
package watch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce collapses editor write bursts into one event.
const Debounce = 250 * time.Millisecond

// Event describes one observed change.
type Event struct {
	Path string `json:"path"`
}

// Watcher watches a directory tree for markdown changes and fans events
// out to subscribers. Slow subscribers drop events rather than block the
// watch loop.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu   sync.Mutex
	subs map[chan Event]struct{}
	done chan struct{}
	once sync.Once
}

// New starts watching dir and its subdirectories.
func New(dir string) (*Watcher, error) {
	return newWith(dir, Debounce)
}

func newWith(dir string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		subs:     make(map[chan Event]struct{}),
		done:     make(chan struct{}),
	}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		base := filepath.Base(e)
		if strings.HasPrefix(base, ".") {
			continue
		}
		if isDir(e) {
			if err := w.addTree(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Subscribe returns a channel receiving debounced change events. The
// channel is closed when the watcher closes.
func (w *Watcher) Subscribe() chan Event {
	ch := make(chan Event, 8)
	w.mu.Lock()
	w.subs[ch] = struct{}{}
	w.mu.Unlock()
	return ch
}

// Unsubscribe detaches and closes a subscription channel.
func (w *Watcher) Unsubscribe(ch chan Event) {
	w.mu.Lock()
	if _, ok := w.subs[ch]; ok {
		delete(w.subs, ch)
		close(ch)
	}
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending Event
	)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			// New directories must join the watch set.
			if ev.Op.Has(fsnotify.Create) && isDir(ev.Name) {
				if err := w.fsw.Add(ev.Name); err != nil {
					log.Printf("watch: add %s: %v", ev.Name, err)
				}
				continue
			}
			pending = Event{Path: ev.Name}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.publish(pending)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) publish(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close stops the watch loop and closes all subscription channels.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.mu.Lock()
		for ch := range w.subs {
			delete(w.subs, ch)
			close(ch)
		}
		w.mu.Unlock()
	})
	return err
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op.Has(fsnotify.Chmod) && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if isDir(ev.Name) {
		return true
	}
	switch strings.ToLower(filepath.Ext(ev.Name)) {
	case ".md", ".markdown", ".toml":
		return true
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
