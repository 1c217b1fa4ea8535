package nb2md

import "runtime"

const (
	// MinWorkers is the minimum number of concurrent conversions.
	MinWorkers = 1

	// MaxWorkers caps concurrent conversions. Each may hold an interpreter.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for interpreters started by execution.
	cpuDivisor = 2
)

// ResolveWorkers returns the number of concurrent conversions to run.
// A positive value is returned unchanged, otherwise the count is derived
// from GOMAXPROCS.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
