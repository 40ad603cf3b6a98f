//go:build !linux

package engine

import "errors"

// pinToCore is a no-op on platforms without a SchedSetaffinity equivalent
// wired up. Pinning is a performance technique, not a correctness
// requirement, so callers only log this.
func pinToCore(core int) error {
	return errors.New("cpu affinity not supported on this platform")
}
