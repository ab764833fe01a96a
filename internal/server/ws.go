package server

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: localOrigin,
}

var openUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// localOrigin mirrors the CORS policy for websocket upgrades: requests
// without an Origin header and browser requests from localhost pass.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

type watchMessage struct {
	Event string `json:"event"`
	Path  string `json:"path"`
}

// handleWatch streams directory change events over a websocket. Without
// a watcher the connection is refused.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		writeError(w, http.StatusServiceUnavailable, "watching disabled")
		return
	}

	up := upgrader
	if s.cfg.AllowAll {
		up = openUpgrader
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := s.watcher.Subscribe()
	defer s.watcher.Unsubscribe(sub)

	// Drain the client side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			msg := watchMessage{Event: "changed", Path: ev.Path}
			if err := conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("server: websocket write: %v", err)
				}
				return
			}
		case <-done:
			return
		}
	}
}
