package gateway

import (
	"math/rand"
	"time"
)

// Backoff returns a duration for reconnect attempt n (0-indexed) with
// jitter, capped at 30 seconds.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// MaxConnectAttempts bounds the startup reconnect loop.
const MaxConnectAttempts = 3
