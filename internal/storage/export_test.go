package storage

import "time"

// SetStaleAfter overrides the age of abandoned captures and returns a restore func.
func SetStaleAfter(d time.Duration) func() {
	previous := staleAfter
	staleAfter = d
	return func() { staleAfter = previous }
}
