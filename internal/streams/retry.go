package streams

import (
	"time"
)

// retryRecord tracks reconnect attempts for one camera. It exists only
// while a reconnect is pending and is dropped on a successful connection
// or once the attempt limit is hit.
type retryRecord struct {
	attempts int
	timer    *time.Timer
}

// backoff is the delay before reconnect attempt n (1-based): the base delay
// doubling with every consecutive failure.
func backoff(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt-1)
}

// scheduleReconnect arms a one-shot reconnect timer for the camera, or
// gives up and escalates once the attempt limit is reached. Exhaustion
// clears the retry state, so a later frame request may try again from
// scratch.
func (r *Registry) scheduleReconnect(id int) {
	r.mu.Lock()

	rec := r.retries[id]
	if rec == nil {
		rec = &retryRecord{}
		r.retries[id] = rec
	}

	if rec.attempts >= r.MaxRetries {
		delete(r.retries, id)
		escalate := r.Escalate
		r.mu.Unlock()

		r.log.Error().Int("camera", id).Int("max", r.MaxRetries).
			Msg("[streams] reconnect attempts exhausted")

		if escalate != nil {
			escalate(id)
		}
		return
	}

	rec.attempts++
	attempts := rec.attempts
	delay := backoff(r.RetryDelay, attempts)
	rec.timer = time.AfterFunc(delay, func() { r.reconnect(id) })

	r.mu.Unlock()

	r.log.Warn().Int("camera", id).Int("attempt", attempts).Int("max", r.MaxRetries).
		Dur("delay", delay).Msg("[streams] reconnect scheduled")
}

// reconnect runs when a retry timer fires. The retry record stays in place
// until the connection succeeds, keeping the backoff growing across
// consecutive failures.
func (r *Registry) reconnect(id int) {
	r.log.Info().Int("camera", id).Msg("[streams] reconnecting")

	r.mu.Lock()
	_, live := r.clients[id]
	if live || r.closed {
		// a record left behind would block frame requests from ever
		// dialing this camera again
		delete(r.retries, id)
		r.mu.Unlock()
		return
	}
	r.dial(id)
	r.mu.Unlock()
}
