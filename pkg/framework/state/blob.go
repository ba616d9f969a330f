package state

// Holder is a processor that can serialize its whole state.
type Holder interface {
	// GetStateInformation appends the state to dst and returns the result.
	GetStateInformation(dst []byte) []byte
	SetStateInformation(data []byte) error
}

// Blob keeps the last serialized state of a processor. Its storage only
// grows, so repeated reads of a same-sized state do not allocate.
type Blob struct {
	buf []byte
}

// Capture replaces the contents with a fresh serialization from h.
func (b *Blob) Capture(h Holder) []byte {
	out := h.GetStateInformation(b.buf[:0])
	if cap(out) >= cap(b.buf) {
		b.buf = out
	} else {
		b.buf = append(b.buf[:0], out...)
	}
	return b.buf
}

// Bytes returns the last captured state.
func (b *Blob) Bytes() []byte {
	return b.buf
}

// Len returns the size of the last captured state.
func (b *Blob) Len() int {
	return len(b.buf)
}

// Cap returns the size of the retained storage.
func (b *Blob) Cap() int {
	return cap(b.buf)
}

// CopyTo copies the last captured state into dst, growing it when needed.
func (b *Blob) CopyTo(dst []byte) []byte {
	if cap(dst) < len(b.buf) {
		dst = make([]byte, len(b.buf))
	}
	dst = dst[:len(b.buf)]
	copy(dst, b.buf)
	return dst
}

// Release drops the storage.
func (b *Blob) Release() {
	b.buf = nil
}
