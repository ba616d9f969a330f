package ump

// Writer appends packets to a fixed word slice. Packets that do not fit
// are dropped whole and counted.
type Writer struct {
	words   []uint32
	n       int
	dropped int
}

// NewWriter creates a writer over dst.
func NewWriter(dst []uint32) Writer {
	return Writer{words: dst}
}

// Reset points the writer at dst and clears counters.
func (w *Writer) Reset(dst []uint32) {
	w.words = dst
	w.n = 0
	w.dropped = 0
}

func (w *Writer) fits(size int) bool {
	if w.n+size > len(w.words) {
		w.dropped++
		return false
	}
	return true
}

// Write32 appends a one word packet
func (w *Writer) Write32(a uint32) bool {
	if !w.fits(1) {
		return false
	}
	w.words[w.n] = a
	w.n++
	return true
}

// Write64 appends a two word packet
func (w *Writer) Write64(a, b uint32) bool {
	if !w.fits(2) {
		return false
	}
	w.words[w.n] = a
	w.words[w.n+1] = b
	w.n += 2
	return true
}

// Write128 appends a four word packet
func (w *Writer) Write128(p [4]uint32) bool {
	if !w.fits(4) {
		return false
	}
	copy(w.words[w.n:], p[:])
	w.n += 4
	return true
}

// Words returns the written words
func (w *Writer) Words() []uint32 {
	return w.words[:w.n]
}

// Len returns the number of written words
func (w *Writer) Len() int {
	return w.n
}

// ByteLen returns the number of written bytes
func (w *Writer) ByteLen() int {
	return w.n * 4
}

// Remaining returns the number of free words
func (w *Writer) Remaining() int {
	return len(w.words) - w.n
}

// Dropped returns how many packets were rejected for lack of space
func (w *Writer) Dropped() int {
	return w.dropped
}
