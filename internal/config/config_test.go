package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aapgo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
perf:
  threshold: 5ms
host:
  metadata_paths: [/opt/aap]
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Duration(5*time.Millisecond), cfg.Perf.Threshold)
	assert.Equal(t, 100, cfg.Perf.Warnings)
	assert.Equal(t, []string{"/opt/aap"}, cfg.Host.MetadataPaths)
	assert.Equal(t, int32(480), cfg.Midi.HostTimeDivision)
	assert.True(t, cfg.Host.SharedMemory)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "tempo: [\n"},
		{"level", "log_level: loud\n"},
		{"tempo", "tempo: 0\n"},
		{"duration", "perf:\n  threshold: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aapgo.yaml")
	cfg := DefaultConfig()
	cfg.Tempo = 98
	cfg.Host.MetadataPaths = []string{"a", "b"}
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
