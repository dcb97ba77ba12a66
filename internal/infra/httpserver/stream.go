package httpserver

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	appfeed "github.com/bryanwahyu/threatdesk/internal/application/feed"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type streamMessage struct {
	Type    string          `json:"type"` // snapshot | entry
	Entries []appfeed.Entry `json:"entries,omitempty"`
	Entry   *appfeed.Entry  `json:"entry,omitempty"`
}

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// GET /v1/feed/stream (websocket)
// Sends the current entries once, then every new entry as it is produced.
func (r *Router) handleFeedStream(w http.ResponseWriter, req *http.Request) {
	if r.feed == nil {
		http.Error(w, "feed disabled", http.StatusNotFound)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("feed stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	entries, cancel := r.feed.Subscribe()
	defer cancel()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(streamMessage{Type: "snapshot", Entries: r.feed.Entries()}); err != nil {
		return
	}

	// the client never sends data; reading surfaces its close frame
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-req.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case e := <-entries:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(streamMessage{Type: "entry", Entry: &e}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
