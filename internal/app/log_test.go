package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCircularBuffer(t *testing.T) {
	buf := newBuffer(2)

	_, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = buf.Write([]byte("world"))
	require.NoError(t, err)

	require.Equal(t, "helloworld", string(buf.Bytes()))

	buf.Reset()
	require.Empty(t, buf.Bytes())
}

func TestCircularBufferOverflow(t *testing.T) {
	buf := newBuffer(2)

	big := make([]byte, chunkSize-4)
	_, _ = buf.Write(big)
	_, _ = buf.Write([]byte("tail"))
	_, _ = buf.Write([]byte("next")) // rolls into second chunk

	b := buf.Bytes()
	require.Equal(t, "next", string(b[len(b)-4:]))
}

func TestGetLogger(t *testing.T) {
	modules["streams"] = "debug"
	modules["api"] = "warn"
	defer delete(modules, "streams")
	defer delete(modules, "api")

	require.Equal(t, zerolog.DebugLevel, GetLogger("streams").GetLevel())
	require.Equal(t, zerolog.WarnLevel, GetLogger("api").GetLevel())

	// unknown module falls back to the global logger level
	require.Equal(t, Logger.GetLevel(), GetLogger("nonexistent").GetLevel())
}
