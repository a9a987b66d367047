package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfString(t *testing.T) {
	require.Equal(t, []byte("{log: {level: trace}}"), parseConfString("log.level=trace"))
	require.Equal(t, []byte("{streams: {retry_delay: 5}}"), parseConfString("streams.retry_delay=5"))

	// not a key path
	require.Nil(t, parseConfString("mjpgrelay.yaml"))
	require.Nil(t, parseConfString("level=trace"))
}

func TestLoadConfigMerge(t *testing.T) {
	old := configs
	defer func() { configs = old }()

	configs = [][]byte{
		[]byte("streams:\n  retry_delay: 2\n  max_retries: 5\n"),
		[]byte("streams:\n  retry_delay: 7\n"),
	}

	var cfg struct {
		Mod struct {
			RetryDelay int `yaml:"retry_delay"`
			MaxRetries int `yaml:"max_retries"`
		} `yaml:"streams"`
	}

	LoadConfig(&cfg)

	// later configs override earlier ones, untouched keys survive
	require.Equal(t, 7, cfg.Mod.RetryDelay)
	require.Equal(t, 5, cfg.Mod.MaxRetries)
}

func TestLoadConfigCameras(t *testing.T) {
	old := configs
	defer func() { configs = old }()

	configs = [][]byte{[]byte(`
cameras:
  1:
    name: yard
    enabled: true
    port: 8081
    username: u
    password: p
    auth: digest
  2:
    enabled: false
    port: 8082
`)}

	var cfg struct {
		Cameras map[int]map[string]any `yaml:"cameras"`
	}

	LoadConfig(&cfg)

	require.Len(t, cfg.Cameras, 2)
	require.Equal(t, "yard", cfg.Cameras[1]["name"])
	require.Equal(t, 8081, cfg.Cameras[1]["port"])
	require.Equal(t, false, cfg.Cameras[2]["enabled"])
}
