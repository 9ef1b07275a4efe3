package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/navigation"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
	feedReadLimit  = 512
	feedBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler streams committed navigation frames over a websocket.
type FeedHandler struct {
	Navigation Navigator
}

// Serve handles GET /api/v1/navigation/feed. The current frame is sent
// first; every later commit follows in order. Frames carry a sequence
// number so a client can drop the duplicate that may precede the first
// live frame.
func (h FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	hub := h.Navigation.Hub()
	frames := hub.Register(feedBuffer)
	defer hub.Unregister(frames)

	done := make(chan struct{})
	go readPump(conn, done)

	logger.Info("feed subscriber connected", "subscribers", hub.Len())
	writePump(conn, h.Navigation.Frame(), frames, done)
	logger.Info("feed subscriber disconnected")
}

// readPump discards client messages and tracks pongs until the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, first navigation.Frame, frames <-chan navigation.Frame, done <-chan struct{}) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	if err := conn.WriteJSON(first); err != nil {
		return
	}

	for {
		select {
		case frame, ok := <-frames:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber fell behind"))
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
