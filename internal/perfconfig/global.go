package perfconfig

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	globalOnce sync.Once
	global     *Config
	globalMu   sync.Mutex
)

// Global returns the process-wide PerformanceConfig, lazily initialized
// from AutoDetect() on first touch — the same once-guarded lifecycle as
// the Rust original's `static PERFORMANCE_CONFIG: Lazy<PerformanceConfig>`.
func Global() *Config {
	globalOnce.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		if global == nil {
			global = AutoDetect()
		}
	})
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

// SetGlobal replaces the global instance wholesale. Must be called
// before the first call to Global() or Pool() to have any effect —
// mirroring the Rust original's note that `custom()`-style
// reconfiguration only applies "before first use." Only the first
// SetGlobal call takes effect.
func SetGlobal(c *Config) {
	globalOnce.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		global = c
	})
}

// Pool returns a fresh errgroup.Group whose concurrency limit is set
// from the global Config's ThreadCount (at least 1).
// A literal shared *errgroup.Group can't be reused across unrelated
// fan-outs (Wait() tears it down), so Pool hands back a ready-to-use
// group with its concurrency limit already applied, the functional
// equivalent of acquiring a slot from the Rust original's shared thread
// pool.
func Pool() *errgroup.Group {
	g := &errgroup.Group{}
	limit := Global().ThreadCount
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	return g
}
