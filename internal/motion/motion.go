// Package motion controls the local motion daemon. The relay only touches
// it as a last resort: when a camera's stream keeps failing past the retry
// limit, restarting the daemon is the configured escalation.
package motion

import (
	"os/exec"

	"github.com/motioneye-project/mjpgrelay/internal/app"
	"github.com/motioneye-project/mjpgrelay/pkg/shell"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			RestartOnErrors bool   `yaml:"restart_on_errors"`
			RestartCommand  string `yaml:"restart_command"`
		} `yaml:"motion"`
	}

	cfg.Mod.RestartCommand = "systemctl restart motion"

	app.LoadConfig(&cfg)

	log = app.GetLogger("motion")

	restartOnErrors = cfg.Mod.RestartOnErrors
	restartCommand = cfg.Mod.RestartCommand
}

// RestartOnErrors reports whether retry exhaustion should restart the daemon.
func RestartOnErrors() bool {
	return restartOnErrors
}

// Restart runs the configured restart command detached. Failures are logged
// and swallowed: escalation must never take the relay down with it.
func Restart() {
	args := shell.QuoteSplit(restartCommand)
	if len(args) == 0 {
		log.Warn().Msg("[motion] empty restart command")
		return
	}

	log.Info().Str("cmd", restartCommand).Msg("[motion] restart")

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Msg("[motion] restart")
		return
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Error().Err(err).Msg("[motion] restart")
		}
	}()
}

var log zerolog.Logger
var restartOnErrors bool
var restartCommand string
