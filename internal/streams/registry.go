package streams

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/motioneye-project/mjpgrelay/pkg/mjpg"
	"github.com/rs/zerolog"
)

// Camera is the connection side of one camera's configuration, resolved on
// demand from the config collaborator.
type Camera struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Remote   bool   `yaml:"remote"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Auth     string `yaml:"auth"` // none, basic or digest
}

// Registry owns every live stream client plus the per-camera retry state.
// It guarantees at most one non-closed client per camera id, and a pending
// retry record means no live client exists for that camera.
//
// Frame caches are kept separately from clients, so the last known good
// frame stays servable while a camera reconnects.
type Registry struct {
	// Conf resolves a camera id to its configuration.
	Conf func(id int) *Camera
	// Escalate fires when a camera exhausts its reconnect attempts. Optional.
	Escalate func(id int)

	RetryDelay  time.Duration
	MaxRetries  int
	DataTimeout time.Duration
	IdleTimeout time.Duration // 0 disables idle eviction
	Sweep       time.Duration

	log zerolog.Logger

	mu      sync.Mutex
	clients map[int]*mjpg.Client
	caches  map[int]*mjpg.FrameCache
	retries map[int]*retryRecord
	sweeper *time.Timer
	closed  bool
}

func NewRegistry(conf func(id int) *Camera) *Registry {
	return &Registry{
		Conf:        conf,
		RetryDelay:  2 * time.Second,
		MaxRetries:  5,
		DataTimeout: 10 * time.Second,
		IdleTimeout: 10 * time.Second,
		Sweep:       10 * time.Second,
		log:         zerolog.Nop(),
		clients:     map[int]*mjpg.Client{},
		caches:      map[int]*mjpg.FrameCache{},
		retries:     map[int]*retryRecord{},
	}
}

func (r *Registry) SetLogger(log zerolog.Logger) {
	r.log = log
}

// Start arms the idle reaper.
func (r *Registry) Start() {
	r.mu.Lock()
	r.closed = false
	if r.sweeper == nil && r.Sweep > 0 {
		r.sweeper = time.AfterFunc(r.Sweep, r.sweep)
	}
	r.mu.Unlock()
}

// Stop disarms the idle reaper and keeps pending reconnects from spawning
// new clients. It does not touch live connections, CloseAll does.
func (r *Registry) Stop() {
	r.mu.Lock()
	r.closed = true
	if r.sweeper != nil {
		r.sweeper.Stop()
		r.sweeper = nil
	}
	r.mu.Unlock()
}

// GetFrame returns the most recent frame for the camera, or nil when none
// is cached. It never blocks waiting for a frame: a missing connection is
// dialed in the background unless a reconnect is already pending.
func (r *Registry) GetFrame(id int) []byte {
	r.mu.Lock()
	if _, live := r.clients[id]; !live {
		if _, pending := r.retries[id]; pending {
			r.log.Debug().Int("camera", id).Msg("[streams] reconnect pending, skip new client")
		} else {
			r.dial(id)
		}
	}
	cache := r.caches[id]
	r.mu.Unlock()

	if cache == nil {
		return nil
	}
	return cache.Frame(time.Now())
}

// GetFPS returns the estimated frame rate, zero when the camera has no
// live connection.
func (r *Registry) GetFPS(id int) float64 {
	r.mu.Lock()
	cache := r.caches[id]
	_, live := r.clients[id]
	r.mu.Unlock()

	if !live || cache == nil {
		return 0
	}
	return cache.FPS(time.Now())
}

// Close tears down one camera's connection without scheduling a reconnect.
func (r *Registry) Close(id int) {
	r.mu.Lock()
	client := r.clients[id]
	r.mu.Unlock()

	if client != nil {
		client.Stop()
	}
}

// CloseAll tears down every connection. With invalidate the retry state is
// cleared too, so the next frame request starts fresh immediately.
func (r *Registry) CloseAll(invalidate bool) {
	r.mu.Lock()
	clients := make([]*mjpg.Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	if invalidate {
		for id, rec := range r.retries {
			if rec.timer != nil {
				rec.timer.Stop()
			}
			delete(r.retries, id)
		}
	}
	r.mu.Unlock()

	for _, client := range clients {
		client.Stop()
	}
}

// Invalidate drops the camera's retry state and closes its connection.
func (r *Registry) Invalidate(id int) {
	r.mu.Lock()
	if rec := r.retries[id]; rec != nil {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(r.retries, id)
	}
	r.mu.Unlock()

	r.Close(id)
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	info := make(map[string]*mjpg.Client, len(r.clients))
	for id, client := range r.clients {
		info[strconv.Itoa(id)] = client
	}
	r.mu.Unlock()

	return json.Marshal(info)
}

// dial creates and starts a client for the camera. Caller holds the mutex.
func (r *Registry) dial(id int) {
	camera := r.Conf(id)
	if camera == nil {
		r.log.Error().Int("camera", id).Msg("[streams] unknown camera")
		return
	}
	if !camera.Enabled || camera.Remote {
		r.log.Error().Int("camera", id).Msg("[streams] camera not enabled or not local")
		return
	}

	r.log.Debug().Int("camera", id).Int("port", camera.Port).Msg("[streams] new client")

	cache := r.caches[id]
	if cache == nil {
		cache = mjpg.NewFrameCache()
		r.caches[id] = cache
	}

	client := mjpg.NewClient(mjpg.Config{
		CameraID: id,
		Host:     camera.Host,
		Port:     camera.Port,
		Username: camera.Username,
		Password: camera.Password,
		Auth:     camera.Auth,
	}, cache)

	client.OnConnect = func() { r.connected(id, camera.Port) }
	client.OnClose = func(err error) { r.closeClient(id, client, err) }

	r.clients[id] = client
	client.Start()
}

// connected resets the camera's backoff, so the next failure starts again
// from the base delay.
func (r *Registry) connected(id, port int) {
	r.mu.Lock()
	if rec := r.retries[id]; rec != nil {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(r.retries, id)
	}
	r.mu.Unlock()

	r.log.Info().Int("camera", id).Int("port", port).Msg("[streams] connected")
}

// closeClient is the single close-and-report path for every connection
// teardown. Only faults schedule a reconnect; deliberate closes (shutdown,
// idle eviction) arrive with a nil error.
func (r *Registry) closeClient(id int, client *mjpg.Client, err error) {
	r.mu.Lock()
	if r.clients[id] == client {
		delete(r.clients, id)
	}
	closed := r.closed
	r.mu.Unlock()

	if err == nil {
		r.log.Debug().Int("camera", id).Msg("[streams] client closed gracefully")
		return
	}

	r.log.Warn().Err(err).Int("camera", id).Msg("[streams] client closed with error")

	if !closed {
		r.scheduleReconnect(id)
	}
}
