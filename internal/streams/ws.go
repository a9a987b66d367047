package streams

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// apiWS pushes the camera's latest frame as binary messages on a fixed
// tick. This is the browser side of the live view: the page polls nothing,
// frames just arrive.
func apiWS(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		http.Error(w, "bad camera id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("[streams] ws upgrade")
		return
	}
	defer conn.Close()

	// drain incoming messages so close frames get processed, and signal
	// the write loop once the peer is gone
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			frame := registry.GetFrame(id)
			if frame == nil {
				continue
			}
			if err = conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}
	}
}
