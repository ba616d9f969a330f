package midi

import (
	"math"

	"github.com/justyntemme/aapgo/pkg/aap"
)

// Time divisions of legacy MIDI 1.0 port buffers
const (
	// DefaultPluginTimeDivision is assumed when a buffer header carries zero
	DefaultPluginTimeDivision int32 = 192
	// DefaultHostTimeDivision is what hosts write into buffers they fill
	DefaultHostTimeDivision int32 = 480
)

// StreamDecoder reads legacy MIDI 1.0 port buffers: a time division and
// byte length header followed by delta-time prefixed events.
//
// A positive time division counts ticks per quarter note at Tempo; a
// negative one counts -timeDivision ticks per second.
type StreamDecoder struct {
	DefaultTimeDivision int32
	Tempo               float64

	runningStatus byte
}

// NewStreamDecoder creates a decoder with the plugin-side defaults.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{
		DefaultTimeDivision: DefaultPluginTimeDivision,
		Tempo:               aap.DefaultTempo,
	}
}

// Reset clears running status.
func (d *StreamDecoder) Reset() {
	d.runningStatus = 0
}

// Decode appends the events of a port region to dst and returns the number
// of malformed events that were skipped. After a malformed event decoding
// resumes at the next event that carries an explicit status byte; the
// delta time of the skipped bytes is lost.
func (d *StreamDecoder) Decode(region []byte, sampleRate float64, frames int, dst *EventList) int {
	timeDivision, _, ok := aap.ReadMidi1Header(region)
	if !ok {
		return 0
	}
	p := aap.Midi1Payload(region)
	skipped := 0
	pos := 0
	var ticks uint64
	d.runningStatus = 0

	for pos < len(p) {
		ev, ok := d.next(p, pos, true)
		if !ok {
			skipped++
			pos = d.resync(p, pos+1)
			continue
		}
		ticks += uint64(ev.delta)
		offset := d.sampleOffset(ticks, timeDivision, sampleRate, frames)
		switch {
		case ev.status < 0xF0:
			d.runningStatus = ev.status
		case !IsRealtime(ev.status):
			d.runningStatus = 0
		}
		dst.AddStatus(offset, ev.status, ev.data)
		pos = ev.end
	}
	return skipped
}

type streamEvent struct {
	delta  uint32
	status byte
	data   []byte
	end    int
}

// next delimits the event at pos without consuming it. Running status is
// only applied when running is set.
func (d *StreamDecoder) next(p []byte, pos int, running bool) (streamEvent, bool) {
	delta, n, err := ReadVLQ(p[pos:])
	if err != nil {
		return streamEvent{}, false
	}
	pos += n
	if pos >= len(p) {
		return streamEvent{}, false
	}
	status := p[pos]
	if status < 0x80 {
		if !running || d.runningStatus == 0 {
			return streamEvent{}, false
		}
		size := StatusSize(d.runningStatus) - 1
		if pos+size > len(p) {
			return streamEvent{}, false
		}
		return streamEvent{delta, d.runningStatus, p[pos : pos+size], pos + size}, true
	}
	size := EventSize(p[pos:])
	if size < 0 || pos+size > len(p) {
		return streamEvent{}, false
	}
	return streamEvent{delta, status, p[pos+1 : pos+size], pos + size}, true
}

// resync returns the first position at or after pos where a delta time is
// followed by a complete event with a status byte.
func (d *StreamDecoder) resync(p []byte, pos int) int {
	for ; pos < len(p); pos++ {
		if _, ok := d.next(p, pos, false); ok {
			return pos
		}
	}
	return pos
}

func (d *StreamDecoder) sampleOffset(ticks uint64, timeDivision int32, sampleRate float64, frames int) int32 {
	tps := ticksPerSecond(timeDivision, d.DefaultTimeDivision, d.Tempo)
	offset := int64(float64(ticks) * sampleRate / tps)
	if offset >= int64(frames) {
		offset = int64(frames) - 1
	}
	if offset < 0 {
		offset = 0
	}
	return int32(offset)
}

func ticksPerSecond(timeDivision, fallback int32, tempo float64) float64 {
	if timeDivision < 0 {
		return float64(-timeDivision)
	}
	if timeDivision == 0 {
		timeDivision = fallback
	}
	if tempo <= 0 {
		tempo = aap.DefaultTempo
	}
	return float64(timeDivision) * tempo / 60
}

// EncodeStream writes list into a legacy MIDI 1.0 port region and returns
// the number of events that did not fit. The list is sorted by offset
// first since deltas cannot go backwards.
func EncodeStream(region []byte, list *EventList, timeDivision int32, tempo, sampleRate float64) int {
	if len(region) < aap.Midi1HeaderSize {
		return list.Len()
	}
	payload := region[aap.Midi1HeaderSize:]
	tps := ticksPerSecond(timeDivision, DefaultHostTimeDivision, tempo)
	list.Sort()
	pos := 0
	dropped := 0
	var prev uint64

	for i := 0; i < list.Len(); i++ {
		msg, offset := list.At(i)
		ticks := uint64(math.Round(float64(offset) / sampleRate * tps))
		var delta uint64
		if ticks > prev {
			delta = ticks - prev
		}
		n, ok := PutVLQ(payload[pos:], uint32(delta))
		if !ok || pos+n+len(msg) > len(payload) {
			dropped++
			continue
		}
		copy(payload[pos+n:], msg)
		pos += n + len(msg)
		prev += delta
	}
	aap.WriteMidi1Header(region, timeDivision, int32(pos))
	return dropped
}
