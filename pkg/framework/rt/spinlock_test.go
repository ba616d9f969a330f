package rt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinLockTryLock(t *testing.T) {
	var l SpinLock
	assert.True(t, l.TryLock())
	assert.False(t, l.TryLock())
	assert.Equal(t, int64(1), l.Contention())
	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestSpinLockUnlockPanics(t *testing.T) {
	var l SpinLock
	assert.Panics(t, func() { l.Unlock() })
}

func TestSpinLockMutualExclusion(t *testing.T) {
	var (
		l       SpinLock
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)
}
