package streams

import (
	"net/http"
	"strconv"

	"github.com/motioneye-project/mjpgrelay/internal/api"
)

func cameraID(r *http.Request) (int, error) {
	return strconv.Atoi(r.URL.Query().Get("camera"))
}

func apiStreams(w http.ResponseWriter, _ *http.Request) {
	api.ResponseJSON(w, registry)
}

func apiFrame(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		http.Error(w, "bad camera id", http.StatusBadRequest)
		return
	}

	frame := registry.GetFrame(id)
	if frame == nil {
		http.Error(w, api.StreamNotFound, http.StatusNotFound)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(frame)))
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")

	if _, err = w.Write(frame); err != nil {
		log.Debug().Err(err).Msg("[streams] write frame")
	}
}

func apiFPS(w http.ResponseWriter, r *http.Request) {
	id, err := cameraID(r)
	if err != nil {
		http.Error(w, "bad camera id", http.StatusBadRequest)
		return
	}

	api.ResponseJSON(w, map[string]any{"camera": id, "fps": registry.GetFPS(id)})
}

// apiRestart drops one camera's retry state and connection, so the next
// frame request dials fresh.
func apiRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	id, err := cameraID(r)
	if err != nil {
		http.Error(w, "bad camera id", http.StatusBadRequest)
		return
	}

	registry.Invalidate(id)
}
