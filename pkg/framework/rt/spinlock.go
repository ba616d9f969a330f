// Package rt holds primitives that are safe to use from the audio thread.
package rt

import (
	"runtime"
	"sync/atomic"
)

// SpinLock serializes short control-thread critical sections against the
// audio thread. The audio thread only calls TryLock and never waits; control
// threads call Lock, which spins and yields until the lock is free.
//
// The zero value is an unlocked lock.
type SpinLock struct {
	state      atomic.Int32
	contention atomic.Int64
}

// Lock acquires the lock, yielding the processor while it is held.
func (l *SpinLock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	if l.state.CompareAndSwap(0, 1) {
		return true
	}
	l.contention.Add(1)
	return false
}

// Unlock releases the lock. Unlocking an unlocked lock panics.
func (l *SpinLock) Unlock() {
	if !l.state.CompareAndSwap(1, 0) {
		panic("rt: unlock of unlocked SpinLock")
	}
}

// Contention returns how many TryLock calls found the lock held.
func (l *SpinLock) Contention() int64 {
	return l.contention.Load()
}
