package host

import (
	"github.com/justyntemme/aapgo/pkg/aap"
	fw "github.com/justyntemme/aapgo/pkg/framework/plugin"
)

// FormatName is reported as the format of every description.
const FormatName = "AAP"

// PluginDescription describes a plugin the format can instantiate.
type PluginDescription struct {
	Name         string
	Format       string
	Category     string
	Manufacturer string
	Version      string
	Identifier   string
	// File is the metadata file the plugin was found in, or the library
	// name of in-process plugins.
	File         string
	UID          int32
	IsInstrument bool

	NumInputChannels  int
	NumOutputChannels int
	AcceptsMidi       bool
	ProducesMidi      bool

	Info *aap.PluginInformation
}

// Describe builds the description of a plugin.
func Describe(info *aap.PluginInformation, file string) PluginDescription {
	return PluginDescription{
		Name:              info.DisplayName,
		Format:            FormatName,
		Category:          info.Category,
		Manufacturer:      info.PackageName,
		Version:           info.Version,
		Identifier:        info.PluginID,
		File:              file,
		UID:               fw.HashID(info.PluginID),
		IsInstrument:      info.IsInstrument(),
		NumInputChannels:  info.CountPorts(aap.PortDirectionInput, aap.ContentTypeAudio),
		NumOutputChannels: info.CountPorts(aap.PortDirectionOutput, aap.ContentTypeAudio),
		AcceptsMidi:       hasMidiPort(info, aap.PortDirectionInput),
		ProducesMidi:      hasMidiPort(info, aap.PortDirectionOutput),
		Info:              info,
	}
}

// hasMidiPort reports whether info declares a MIDI or MIDI2 port in
// direction.
func hasMidiPort(info *aap.PluginInformation, direction aap.PortDirection) bool {
	for _, p := range info.Ports {
		if p.Direction == direction && p.Content.IsMidi() {
			return true
		}
	}
	return false
}
