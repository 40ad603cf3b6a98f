//go:build linux

package engine

import "golang.org/x/sys/unix"

// pinToCore pins the calling goroutine's underlying OS thread to a single
// CPU core, the same role core_affinity plays in the source this worker
// loop is modeled on. Best-effort: callers log, never fail, on error.
func pinToCore(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
