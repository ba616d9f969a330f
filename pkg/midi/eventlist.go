package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

type listEntry struct {
	offset int32
	start  int32
	end    int32
}

// EventList is the per-block list of timestamped MIDI messages handed to a
// processor. Storage is fixed at construction; Add never allocates and
// rejects events that do not fit.
type EventList struct {
	data    []byte
	entries []listEntry
	dropped int
}

// NewEventList creates a list for up to maxEvents events totalling maxBytes.
func NewEventList(maxEvents, maxBytes int) *EventList {
	return &EventList{
		data:    make([]byte, 0, maxBytes),
		entries: make([]listEntry, 0, maxEvents),
	}
}

// Add appends a complete message at a sample offset.
func (l *EventList) Add(offset int32, msg []byte) bool {
	if len(msg) == 0 {
		return false
	}
	if !l.reserve(len(msg)) {
		return false
	}
	start := len(l.data)
	l.data = append(l.data, msg...)
	l.entries = append(l.entries, listEntry{offset: offset, start: int32(start), end: int32(len(l.data))})
	return true
}

// AddStatus appends a message assembled from a status byte and its data
// bytes, as produced by running status resolution.
func (l *EventList) AddStatus(offset int32, status byte, data []byte) bool {
	if !l.reserve(1 + len(data)) {
		return false
	}
	start := len(l.data)
	l.data = append(l.data, status)
	l.data = append(l.data, data...)
	l.entries = append(l.entries, listEntry{offset: offset, start: int32(start), end: int32(len(l.data))})
	return true
}

// Add3 appends a message of up to three bytes; size selects how many are kept.
func (l *EventList) Add3(offset int32, size int, b0, b1, b2 byte) bool {
	if size < 1 || size > 3 || !l.reserve(size) {
		return false
	}
	start := len(l.data)
	l.data = append(l.data, b0)
	if size > 1 {
		l.data = append(l.data, b1)
	}
	if size > 2 {
		l.data = append(l.data, b2)
	}
	l.entries = append(l.entries, listEntry{offset: offset, start: int32(start), end: int32(len(l.data))})
	return true
}

func (l *EventList) reserve(n int) bool {
	if len(l.entries) == cap(l.entries) || len(l.data)+n > cap(l.data) {
		l.dropped++
		return false
	}
	return true
}

// Clear empties the list, keeping its storage.
func (l *EventList) Clear() {
	l.data = l.data[:0]
	l.entries = l.entries[:0]
	l.dropped = 0
}

// Len returns the number of events
func (l *EventList) Len() int {
	return len(l.entries)
}

// IsEmpty reports whether the list holds no events
func (l *EventList) IsEmpty() bool {
	return len(l.entries) == 0
}

// Dropped returns how many events were rejected since the last Clear.
func (l *EventList) Dropped() int {
	return l.dropped
}

// At returns event i. The message aliases the list storage and is valid
// until the next Clear.
func (l *EventList) At(i int) (gomidi.Message, int32) {
	e := l.entries[i]
	return gomidi.Message(l.data[e.start:e.end]), e.offset
}

// Event returns event i as a typed event.
func (l *EventList) Event(i int) (Event, bool) {
	msg, offset := l.At(i)
	return Parse(msg, offset)
}

// Sort orders events by sample offset, keeping insertion order for equal
// offsets. Lists are usually already ordered so insertion sort is used.
func (l *EventList) Sort() {
	for i := 1; i < len(l.entries); i++ {
		e := l.entries[i]
		j := i - 1
		for j >= 0 && l.entries[j].offset > e.offset {
			l.entries[j+1] = l.entries[j]
			j--
		}
		l.entries[j+1] = e
	}
}

// Iterator returns a fresh iterator over the list.
func (l *EventList) Iterator() Iterator {
	return Iterator{list: l}
}

// Iterator walks an EventList in order
type Iterator struct {
	list *EventList
	pos  int
}

// Next returns the next event
func (it *Iterator) Next() (gomidi.Message, int32, bool) {
	if it.list == nil || it.pos >= it.list.Len() {
		return nil, 0, false
	}
	msg, offset := it.list.At(it.pos)
	it.pos++
	return msg, offset, true
}
