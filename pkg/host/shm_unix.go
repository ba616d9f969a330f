//go:build unix

package host

import "golang.org/x/sys/unix"

// allocRegion returns a port region of size bytes. With shared set the
// region is an anonymous shared mapping that a plugin process can be
// handed; mapped reports whether freeRegion must unmap it.
func allocRegion(size int, shared bool) (region []byte, mapped bool, err error) {
	if !shared {
		return make([]byte, size), false, nil
	}
	region, err = unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, false, err
	}
	return region, true, nil
}

func freeRegion(region []byte) error {
	return unix.Munmap(region)
}
