package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hyperengineering/foodlens/internal/workflow"
)

const (
	eventPingInterval = 25 * time.Second
	eventWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StateEvent is one message on the events socket.
type StateEvent struct {
	Type  string         `json:"type"`
	State workflow.State `json:"state"`
}

// Events handles GET /api/v1/events. The socket receives the current
// state, then every published state in sequence order. Client messages
// are ignored; the read loop only detects disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	updates, unsubscribe := h.app.Workflow.Subscribe()
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "request_id", GetRequestID(r.Context()))
		return
	}
	defer conn.Close()

	log := slog.With("component", "events", "request_id", GetRequestID(r.Context()))
	log.Info("subscriber connected", "remote_addr", r.RemoteAddr)
	defer log.Info("subscriber disconnected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(st workflow.State) error {
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		return conn.WriteJSON(StateEvent{Type: "state", State: st})
	}

	last := h.app.Workflow.State()
	if err := send(last); err != nil {
		return
	}

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(eventWriteTimeout))
				return
			}
			// The initial snapshot may already include this update.
			if st.Seq <= last.Seq {
				continue
			}
			last = st
			if err := send(st); err != nil {
				log.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteTimeout)); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
