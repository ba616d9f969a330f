//go:build !unix

package host

import "errors"

var errNoSharedMemory = errors.New("shared memory buffers are not supported on this platform")

func allocRegion(size int, shared bool) ([]byte, bool, error) {
	if shared {
		return nil, false, errNoSharedMemory
	}
	return make([]byte, size), false, nil
}

func freeRegion([]byte) error {
	return nil
}
