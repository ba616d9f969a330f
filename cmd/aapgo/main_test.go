package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/justyntemme/aapgo/examples/gain"
	"github.com/justyntemme/aapgo/examples/simplesynth"
	"github.com/justyntemme/aapgo/pkg/framework/debug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	config := filepath.Join(t.TempDir(), "missing.yaml")
	code := newApp(append([]string{"aapgo", args[0], "-config", config}, args[1:]...), &out).run()
	return code, out.String()
}

func TestInit(t *testing.T) {
	a := newApp([]string{"aapgo"}, &bytes.Buffer{})
	assert.Len(t, a.commands, 2)
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, errorExitCode, newApp([]string{"aapgo", "nope"}, &out).run())
	assert.Contains(t, out.String(), "render")
}

func TestStringList(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("60, 64"))
	require.NoError(t, l.Set("67,"))
	assert.Equal(t, stringList{"60", "64", "67"}, l)
	assert.Equal(t, "60,64,67", l.String())
}

func TestList(t *testing.T) {
	code, out := run(t, "list", "-v")
	require.Equal(t, successExitCode, code, out)
	assert.Contains(t, out, gain.ID)
	assert.Contains(t, out, simplesynth.ID)
	assert.Contains(t, out, "/Envelope/Attack")
}

func TestRenderGain(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	src := make([]float32, 3000)
	for i := range src {
		src[i] = 0.5
	}
	require.NoError(t, writeWav(in, [][]float32{src}, 44100, 16))

	code, report := run(t, "render", "-plugin", gain.ID, "-in", in, "-out", out, "-block", "256")
	require.Equal(t, successExitCode, code, report)
	assert.Contains(t, report, "peak")

	channels, rate, err := readWav(out)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	require.Len(t, channels, 2)
	for _, ch := range channels {
		require.Len(t, ch, len(src))
		stats := debug.Analyze(ch)
		assert.InDelta(t, 0.5, stats.Peak, 1e-3)
		assert.InDelta(t, 0.5, stats.DC, 1e-3)
	}
}

func TestRenderSynth(t *testing.T) {
	out := filepath.Join(t.TempDir(), "synth.wav")
	code, report := run(t, "render", "-plugin", simplesynth.ID, "-note", "60,67", "-seconds", "0.25", "-out", out)
	require.Equal(t, successExitCode, code, report)

	channels, rate, err := readWav(out)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	require.Len(t, channels, 2)
	assert.Len(t, channels[0], 12000)
	assert.Positive(t, debug.Analyze(channels[0]).Peak)
}

func TestRenderErrors(t *testing.T) {
	code, out := run(t, "render")
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, out, "missing -plugin")

	code, out = run(t, "render", "-plugin", "org.example.unknown", "-seconds", "0.01", "-out", filepath.Join(t.TempDir(), "x.wav"))
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, out, "not found")

	code, _ = run(t, "render", "-plugin", gain.ID, "-note", "200")
	assert.Equal(t, errorExitCode, code)
}
