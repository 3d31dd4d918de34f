package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageRateLimiter(t *testing.T) {
	rl := NewMessageRateLimiter(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("u1"), "attempt %d inside the limit", i)
	}
	require.False(t, rl.Allow("u1"), "fourth attempt inside the window")

	// Other users have their own window.
	require.True(t, rl.Allow("u2"))

	time.Sleep(120 * time.Millisecond)
	require.True(t, rl.Allow("u1"), "window slid past old attempts")
}
