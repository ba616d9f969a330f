package ump

// Packet is one UMP of 1, 2 or 4 words
type Packet struct {
	Words [4]uint32
	Size  int
}

// Type returns the message type of the packet
func (p Packet) Type() MessageType {
	return Type(p.Words[0])
}

// StatusCode returns the packet status without channel
func (p Packet) StatusCode() uint8 {
	return StatusCode(p.Words[0])
}

// Sequence iterates a run of UMP words packet by packet.
type Sequence struct {
	words []uint32
	pos   int
}

// NewSequence creates an iterator over words.
func NewSequence(words []uint32) Sequence {
	return Sequence{words: words}
}

// Next returns the next packet. It returns false at the end of the words
// or when the trailing packet is truncated.
func (s *Sequence) Next() (Packet, bool) {
	var p Packet
	if s.pos >= len(s.words) {
		return p, false
	}
	size := PacketWords(Type(s.words[s.pos]))
	if s.pos+size > len(s.words) {
		s.pos = len(s.words)
		return p, false
	}
	copy(p.Words[:size], s.words[s.pos:s.pos+size])
	p.Size = size
	s.pos += size
	return p, true
}

// Reset rewinds the iterator.
func (s *Sequence) Reset() {
	s.pos = 0
}
