// Package voice assigns MIDI notes to a fixed pool of synthesizer voices.
// An Allocator does not allocate after construction and may run on the
// audio thread.
package voice

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Mode defines how notes map to voices
type Mode int

const (
	// ModePoly gives each note its own voice
	ModePoly Mode = iota
	// ModeMono plays one note at a time on the first voice
	ModeMono
)

// Stealing defines which voice a note takes when all are in use
type Stealing int

const (
	// StealOldest takes the voice triggered longest ago
	StealOldest Stealing = iota
	// StealQuietest takes the voice with the lowest amplitude
	StealQuietest
	// StealNone drops the note
	StealNone
)

const (
	ccSustain      = 64
	ccAllSoundOff  = 120
	ccAllNotesOff  = 123
	noNote         = -1
	sustainOnValue = 64
)

// Voice is one sound generator of a synthesizer.
type Voice interface {
	// Active reports whether the voice still produces sound, including
	// its release.
	Active() bool
	// Amplitude is the current output level, used by StealQuietest.
	Amplitude() float64
	Trigger(note, velocity uint8)
	Release()
	// Stop silences the voice immediately.
	Stop()
}

// Allocator maps notes to voices
type Allocator struct {
	voices   []Voice
	notes    []int16 // held note per voice, noNote once released
	started  []uint64
	seq      uint64
	next     int
	mode     Mode
	stealing Stealing

	sustain   bool
	sustained [128]bool
}

// NewAllocator creates an allocator over voices
func NewAllocator(voices ...Voice) *Allocator {
	a := &Allocator{
		voices:  voices,
		notes:   make([]int16, len(voices)),
		started: make([]uint64, len(voices)),
	}
	for i := range a.notes {
		a.notes[i] = noNote
	}
	return a
}

// Voices returns the pool in allocation order.
func (a *Allocator) Voices() []Voice {
	return a.voices
}

// SetMode changes the allocation mode and stops every voice.
func (a *Allocator) SetMode(mode Mode) {
	a.mode = mode
	a.Reset()
}

// SetStealing sets the voice stealing strategy
func (a *Allocator) SetStealing(s Stealing) {
	a.stealing = s
}

// HandleMessage applies a note or controller message. It reports whether
// the message was understood.
func (a *Allocator) HandleMessage(msg gomidi.Message) bool {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		a.NoteOn(key, vel)
	case msg.GetNoteEnd(&ch, &key):
		a.NoteOff(key)
	case msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case ccSustain:
			a.SetSustain(val >= sustainOnValue)
		case ccAllNotesOff:
			a.releaseAll()
		case ccAllSoundOff:
			a.Reset()
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// NoteOn starts note, retriggering the voice already holding it.
func (a *Allocator) NoteOn(note, velocity uint8) {
	if note > 127 || len(a.voices) == 0 {
		return
	}
	a.sustained[note] = false

	idx := -1
	if a.mode == ModeMono {
		idx = 0
		for i := 1; i < len(a.voices); i++ {
			a.free(i)
		}
	} else {
		for i, n := range a.notes {
			if n == int16(note) {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = a.findFree()
		}
		if idx < 0 {
			idx = a.steal()
		}
		if idx < 0 {
			return
		}
	}

	a.seq++
	a.notes[idx] = int16(note)
	a.started[idx] = a.seq
	a.voices[idx].Trigger(note, velocity)
}

// NoteOff releases note, or holds it while the sustain pedal is down.
func (a *Allocator) NoteOff(note uint8) {
	if note > 127 {
		return
	}
	if a.sustain {
		a.sustained[note] = true
		return
	}
	for i, n := range a.notes {
		if n == int16(note) {
			a.voices[i].Release()
			a.notes[i] = noNote
		}
	}
}

// SetSustain sets the pedal. Lifting it releases the notes it held.
func (a *Allocator) SetSustain(on bool) {
	a.sustain = on
	if on {
		return
	}
	for note, held := range a.sustained {
		if held {
			a.sustained[note] = false
			a.NoteOff(uint8(note))
		}
	}
}

// Reset stops every voice and forgets held notes.
func (a *Allocator) Reset() {
	for i := range a.voices {
		a.free(i)
	}
	a.sustain = false
	a.sustained = [128]bool{}
	a.next = 0
}

// ActiveCount returns the number of sounding voices.
func (a *Allocator) ActiveCount() int {
	n := 0
	for _, v := range a.voices {
		if v.Active() {
			n++
		}
	}
	return n
}

func (a *Allocator) releaseAll() {
	a.sustain = false
	a.sustained = [128]bool{}
	for i, n := range a.notes {
		if n != noNote {
			a.voices[i].Release()
			a.notes[i] = noNote
		}
	}
}

func (a *Allocator) free(i int) {
	a.voices[i].Stop()
	a.notes[i] = noNote
}

// findFree returns an idle voice, searching round-robin.
func (a *Allocator) findFree() int {
	n := len(a.voices)
	for i := 0; i < n; i++ {
		idx := (a.next + i) % n
		if !a.voices[idx].Active() {
			a.next = (idx + 1) % n
			return idx
		}
	}
	return -1
}

func (a *Allocator) steal() int {
	if a.stealing == StealNone {
		return -1
	}
	best := -1
	for i, v := range a.voices {
		if best < 0 {
			best = i
			continue
		}
		switch a.stealing {
		case StealOldest:
			if a.started[i] < a.started[best] {
				best = i
			}
		case StealQuietest:
			if v.Amplitude() < a.voices[best].Amplitude() {
				best = i
			}
		}
	}
	if best >= 0 {
		a.free(best)
	}
	return best
}
