package main

import (
	"github.com/motioneye-project/mjpgrelay/internal/api"
	"github.com/motioneye-project/mjpgrelay/internal/app"
	"github.com/motioneye-project/mjpgrelay/internal/motion"
	"github.com/motioneye-project/mjpgrelay/internal/streams"
	"github.com/motioneye-project/mjpgrelay/pkg/shell"

	"github.com/rs/zerolog/log"
	daemon "github.com/sevlyar/go-daemon"
)

func main() {
	shell.Init() // register daemon flags
	app.Init()   // init config and logs

	if shell.Daemonize {
		cntxt := &daemon.Context{
			PidFileName: shell.PidFilePath,
			PidFilePerm: 0644,
		}

		d, err := cntxt.Reborn()
		if err != nil {
			log.Fatal().Err(err).Msg("daemonize")
		}
		if d != nil {
			log.Info().Msgf("daemon started with pid %d", d.Pid)
			return
		}
		defer func() { _ = cntxt.Release() }()
	}

	api.Init()     // init HTTP API server
	motion.Init()  // add motion daemon escalation
	streams.Init() // start the stream registry and idle reaper

	shell.RunUntilSignal()

	streams.Shutdown()
}
