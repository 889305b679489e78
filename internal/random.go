package internal

import (
	"crypto/rand"
	"math/big"
	"time"
)

// RandomOffset returns a uniformly random duration in [0, window]. Used to
// jitter token expiries so a fleet of tokens issued together does not expire
// together. Falls back to 0 when the entropy source fails; the caller's base
// expiry still applies.
func RandomOffset(window time.Duration) time.Duration {
	if window <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(window)+1))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}
