package mjpg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrameCacheFPS(t *testing.T) {
	cache := NewFrameCache()
	now := time.Now()

	// below window capacity the rate is unknown
	for i := 0; i < fpsWindow-1; i++ {
		cache.Store([]byte{0xFF}, now.Add(time.Duration(i)*100*time.Millisecond))
		require.Zero(t, cache.FPS(now.Add(time.Duration(i)*100*time.Millisecond)))
	}

	// 10th frame fills the window: 9 intervals over 0.9s = 10 fps
	last := now.Add(900 * time.Millisecond)
	cache.Store([]byte{0xFF}, last)
	require.InDelta(t, 10.0, cache.FPS(last), 0.001)

	// a full window goes back to zero once the stream stalls
	require.Zero(t, cache.FPS(last.Add(staleAfter+time.Millisecond)))
}

func TestFrameCacheWindowBound(t *testing.T) {
	cache := NewFrameCache()
	now := time.Now()

	for i := 0; i < fpsWindow*3; i++ {
		cache.Store([]byte{byte(i)}, now.Add(time.Duration(i)*50*time.Millisecond))
	}

	require.Len(t, cache.times, fpsWindow)
	require.Equal(t, []byte{byte(fpsWindow*3 - 1)}, cache.Frame(now))
}

func TestFrameCacheAccess(t *testing.T) {
	cache := NewFrameCache()
	now := time.Now()

	require.True(t, cache.LastAccess().IsZero())
	require.Nil(t, cache.Frame(now))
	require.Equal(t, now, cache.LastAccess())

	// access time moves independently of receipt time
	cache.Store([]byte("jpeg"), now)
	later := now.Add(time.Minute)
	require.Equal(t, []byte("jpeg"), cache.Frame(later))
	require.Equal(t, later, cache.LastAccess())
}

func TestFrameCacheLastFrame(t *testing.T) {
	cache := NewFrameCache()
	now := time.Now()

	// an empty cache starts counting from the first check
	require.Equal(t, now, cache.LastFrame(now))
	require.Equal(t, now, cache.LastFrame(now.Add(time.Hour)))

	cache.Store([]byte("jpeg"), now.Add(time.Second))
	require.Equal(t, now.Add(time.Second), cache.LastFrame(now.Add(time.Hour)))
}
