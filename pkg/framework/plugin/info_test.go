package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUIDGeneration(t *testing.T) {
	info := Info{ID: "com.mycompany.newplugin"}
	assert.Equal(t, info.UID(), info.UID(), "deterministic")

	// FNV-1a of the empty string is the offset basis
	assert.Equal(t, int32(-2128831035), HashID(""))
	assert.Equal(t, int32(-468965076), HashID("a"))
}

func TestUIDUniqueness(t *testing.T) {
	plugins := []string{
		"com.company1.plugin1",
		"com.company1.plugin2",
		"com.company2.plugin1",
		"com.different.name",
	}

	uids := make(map[int32]string)
	for _, pluginID := range plugins {
		uid := Info{ID: pluginID}.UID()
		if existing, exists := uids[uid]; exists {
			t.Errorf("UID collision between %s and %s", pluginID, existing)
		}
		uids[uid] = pluginID
	}
}

func TestInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    Info
		wantErr bool
	}{
		{"valid", Info{ID: "com.example.plugin"}, false},
		{"empty", Info{ID: ""}, true},
		{"whitespace", Info{ID: "com example"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsInstrument(t *testing.T) {
	assert.True(t, Info{Category: "Instrument"}.IsInstrument())
	assert.True(t, Info{Category: "Synth|Generator"}.IsInstrument())
	assert.False(t, Info{Category: "Effect"}.IsInstrument())
}
