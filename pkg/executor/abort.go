package executor

import "sync/atomic"

// AbortFlag asks a running transaction to stop. It is leveled: once set it
// stays set until the executor observes and clears it.
type AbortFlag struct {
	set atomic.Bool
}

// Set raises the flag. It is safe to call from any goroutine.
func (f *AbortFlag) Set() { f.set.Store(true) }

// IsSet reports whether the flag is raised.
func (f *AbortFlag) IsSet() bool { return f.set.Load() }

// Clear lowers the flag.
func (f *AbortFlag) Clear() { f.set.Store(false) }
