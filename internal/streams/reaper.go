package streams

import (
	"time"

	"github.com/motioneye-project/mjpgrelay/pkg/mjpg"
)

// sweep evicts stalled and unused streams on a fixed period.
//
// At most one data-timeout eviction happens per round: each one schedules a
// reconnect, and bounding them keeps a misbehaving daemon from triggering a
// reconnect storm. Idle evictions are deliberate shutdowns, never schedule
// a reconnect and are not rate limited.
func (r *Registry) sweep() {
	now := time.Now()

	type entry struct {
		id     int
		client *mjpg.Client
	}

	r.mu.Lock()
	entries := make([]entry, 0, len(r.clients))
	for id, client := range r.clients {
		entries = append(entries, entry{id, client})
	}
	r.mu.Unlock()

	for _, e := range entries {
		if e.client.Closed() {
			continue
		}

		cache := e.client.Cache()

		if now.Sub(cache.LastFrame(now)) > r.DataTimeout {
			r.log.Error().Int("camera", e.id).Int("port", e.client.Port()).
				Msg("[streams] timed out receiving data")
			e.client.Stop()
			r.scheduleReconnect(e.id)
			break
		}

		if r.IdleTimeout > 0 && now.Sub(cache.LastAccess()) > r.IdleTimeout {
			r.log.Debug().Int("camera", e.id).Int("port", e.client.Port()).
				Msg("[streams] idle, removing")
			e.client.Stop()
		}
	}

	r.mu.Lock()
	if r.sweeper != nil {
		r.sweeper.Reset(r.Sweep)
	}
	r.mu.Unlock()
}
