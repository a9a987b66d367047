package streams

import (
	"time"

	"github.com/motioneye-project/mjpgrelay/internal/api"
	"github.com/motioneye-project/mjpgrelay/internal/app"
	"github.com/motioneye-project/mjpgrelay/internal/motion"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			RetryDelay    int `yaml:"retry_delay"`
			MaxRetries    int `yaml:"max_retries"`
			DataTimeout   int `yaml:"data_timeout"`
			IdleTimeout   int `yaml:"idle_timeout"`
			SweepInterval int `yaml:"sweep_interval"`
		} `yaml:"streams"`
		Cameras map[int]*Camera `yaml:"cameras"`
	}

	// defaults, in seconds
	cfg.Mod.RetryDelay = 2
	cfg.Mod.MaxRetries = 5
	cfg.Mod.DataTimeout = 10
	cfg.Mod.IdleTimeout = 10
	cfg.Mod.SweepInterval = 10

	app.LoadConfig(&cfg)

	log = app.GetLogger("streams")

	cameras := cfg.Cameras

	registry = NewRegistry(func(id int) *Camera { return cameras[id] })
	registry.RetryDelay = time.Duration(cfg.Mod.RetryDelay) * time.Second
	registry.MaxRetries = cfg.Mod.MaxRetries
	registry.DataTimeout = time.Duration(cfg.Mod.DataTimeout) * time.Second
	registry.IdleTimeout = time.Duration(cfg.Mod.IdleTimeout) * time.Second
	registry.Sweep = time.Duration(cfg.Mod.SweepInterval) * time.Second
	registry.SetLogger(log)

	if motion.RestartOnErrors() {
		registry.Escalate = func(id int) { motion.Restart() }
	}

	api.HandleFunc("api/streams", apiStreams)
	api.HandleFunc("api/frame.jpeg", apiFrame)
	api.HandleFunc("api/fps", apiFPS)
	api.HandleFunc("api/restart", apiRestart)
	api.HandleFunc("api/ws", apiWS)

	registry.Start()

	log.Info().Int("cameras", len(cameras)).Msg("[streams] init")
}

// GetFrame returns the latest cached frame for the camera, nil when none.
func GetFrame(id int) []byte {
	return registry.GetFrame(id)
}

// GetFPS returns the camera's estimated frame rate.
func GetFPS(id int) float64 {
	return registry.GetFPS(id)
}

// CloseAll tears down every stream connection.
func CloseAll(invalidate bool) {
	registry.CloseAll(invalidate)
}

// Shutdown disarms the reaper and closes every connection.
func Shutdown() {
	registry.Stop()
	registry.CloseAll(false)
}

var registry *Registry
var log zerolog.Logger
