package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"github.com/justyntemme/aapgo/pkg/framework/process"
	"github.com/justyntemme/aapgo/pkg/midi"
	"github.com/justyntemme/aapgo/pkg/metric"
	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	wavFormatPCM = 1
	noteVelocity = 100
)

type renderCommand struct {
	common
	pluginID string
	inPath   string
	outPath  string
	seconds  float64
	rate     int
	block    int
	bits     int
	notes    stringList
	out      io.Writer
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Process a wav file, or silence, through a plugin"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.register(fs)
	fs.StringVar(&cmd.pluginID, "plugin", "", "plugin id")
	fs.StringVar(&cmd.inPath, "in", "", "input wav file, silence when empty")
	fs.StringVar(&cmd.outPath, "out", "out.wav", "output wav file")
	fs.Float64Var(&cmd.seconds, "seconds", 2, "length rendered without input")
	fs.IntVar(&cmd.rate, "rate", 48000, "sample rate used without input")
	fs.IntVar(&cmd.block, "block", 512, "block size in frames")
	fs.IntVar(&cmd.bits, "bits", 16, "output bit depth")
	fs.Var(&cmd.notes, "note", "comma separated notes held for most of the render")
}

func (cmd *renderCommand) Run() error {
	if cmd.pluginID == "" {
		return errors.New("missing -plugin")
	}
	if cmd.block <= 0 {
		return fmt.Errorf("invalid block size %d", cmd.block)
	}
	notes, err := parseNotes(cmd.notes)
	if err != nil {
		return err
	}
	if err := cmd.load(); err != nil {
		return err
	}

	var input [][]float32
	rate := cmd.rate
	if cmd.inPath != "" {
		if input, rate, err = readWav(cmd.inPath); err != nil {
			return err
		}
	} else {
		input = [][]float32{make([]float32, int(cmd.seconds*float64(rate)))}
	}
	total := 0
	if len(input) > 0 {
		total = len(input[0])
	}

	f := cmd.openFormat()
	defer f.Close()
	desc, ok := f.Find(cmd.pluginID)
	if !ok {
		return fmt.Errorf("plugin %q not found", cmd.pluginID)
	}
	inst, err := f.CreateInstanceSync(desc, rate)
	if err != nil {
		return err
	}
	defer inst.Dispose()
	if err := inst.PrepareToPlay(float64(rate), cmd.block); err != nil {
		return err
	}
	defer inst.ReleaseResources()

	ins := make([][]float32, desc.NumInputChannels)
	for ch := range ins {
		// mono input feeds every plugin input
		ins[ch] = input[ch%len(input)]
	}
	outs := make([][]float32, desc.NumOutputChannels)
	for ch := range outs {
		outs[ch] = make([]float32, total)
	}

	ctx := process.NewContext(cmd.block, nil)
	ctx.SampleRate = float64(rate)
	ctx.Events = midi.NewEventList(256, 4096)
	ctx.OutEvents = midi.NewEventList(256, 4096)
	ctx.PlayHead = process.NewPlayHead(cmd.cfg.Tempo)
	ctx.PlayHead.Playing = true
	ctx.Input = make([][]float32, len(ins))
	ctx.Output = make([][]float32, len(outs))

	release := total * 3 / 4
	midiOut := 0
	for pos := 0; pos < total; pos += cmd.block {
		n := min(cmd.block, total-pos)
		for ch := range ins {
			ctx.Input[ch] = ins[ch][pos : pos+n]
		}
		for ch := range outs {
			ctx.Output[ch] = outs[ch][pos : pos+n]
		}
		ctx.Frames = n
		ctx.Events.Clear()
		ctx.OutEvents.Clear()
		if pos == 0 {
			for _, note := range notes {
				ctx.Events.Add(0, gomidi.NoteOn(0, note, noteVelocity))
			}
		}
		if release >= pos && release < pos+n {
			for _, note := range notes {
				ctx.Events.Add(int32(release-pos), gomidi.NoteOff(0, note))
			}
		}
		inst.ProcessBlock(ctx)
		midiOut += ctx.OutEvents.Len()
		ctx.PlayHead.Advance(n, ctx.SampleRate)
	}

	if err := writeWav(cmd.outPath, outs, rate, cmd.bits); err != nil {
		return err
	}
	cmd.report(desc.Identifier, outs, midiOut)
	perf := inst.Perf()
	fmt.Fprintf(cmd.out, "perf: %s\n", perf)
	return nil
}

func (cmd *renderCommand) report(id string, outs [][]float32, midiOut int) {
	for ch, buf := range outs {
		s := debug.Analyze(buf)
		fmt.Fprintf(cmd.out, "out %d: peak %.4f rms %.4f dc %.4f\n", ch, s.Peak, s.RMS, s.DC)
		for _, issue := range s.Issues(fmt.Sprintf("out %d", ch)) {
			log.Warn("%s", issue)
		}
	}
	if midiOut > 0 {
		fmt.Fprintf(cmd.out, "midi out: %d events\n", midiOut)
	}
	counters := metric.Get("host/" + id)
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.out, "%s: %s\n", name, counters[name])
	}
}

func parseNotes(list []string) ([]uint8, error) {
	notes := make([]uint8, 0, len(list))
	for _, s := range list {
		n, err := strconv.ParseUint(s, 10, 7)
		if err != nil {
			return nil, fmt.Errorf("invalid note %q", s)
		}
		notes = append(notes, uint8(n))
	}
	return notes, nil
}

// readWav returns the deinterleaved channels of a PCM wav file scaled to
// [-1, 1) and its sample rate.
func readWav(path string) ([][]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid wav file", path)
	}
	if decoder.BitDepth == 0 || decoder.BitDepth > 32 {
		return nil, 0, fmt.Errorf("%s: unsupported bit depth %d", path, decoder.BitDepth)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	numChannels := buf.Format.NumChannels
	if numChannels < 1 {
		return nil, 0, fmt.Errorf("%s: no channels", path)
	}
	scale := 1 / float32(int(1)<<(decoder.BitDepth-1))
	frames := len(buf.Data) / numChannels
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			channels[ch][i] = float32(buf.Data[i*numChannels+ch]) * scale
		}
	}
	return channels, int(decoder.SampleRate), nil
}

func writeWav(path string, channels [][]float32, sampleRate, bitDepth int) error {
	if len(channels) == 0 {
		return errors.New("plugin has no audio output")
	}
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	numChannels := len(channels)
	frames := len(channels[0])
	full := float32(int(1)<<(bitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, frames*numChannels),
	}
	for ch, samples := range channels {
		for i, v := range samples {
			buf.Data[i*numChannels+ch] = int(min(max(v, -1), 1) * full)
		}
	}

	e := wav.NewEncoder(file, sampleRate, bitDepth, numChannels, wavFormatPCM)
	if err := e.Write(buf); err != nil {
		return err
	}
	return e.Close()
}
