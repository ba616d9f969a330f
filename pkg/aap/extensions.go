package aap

// ExtensionID identifies an extension without string comparison
type ExtensionID int

const (
	ExtensionPluginInfo ExtensionID = iota
	ExtensionState
	ExtensionPresets
	ExtensionParameters
	ExtensionMidi
	ExtensionGui
	extensionCount
)

// Extension URIs as written in plugin metadata
const (
	PluginInfoExtensionURI = "urn://androidaudioplugin.org/extensions/plugin-info/v1"
	StateExtensionURI      = "urn://androidaudioplugin.org/extensions/state/v1"
	PresetsExtensionURI    = "urn://androidaudioplugin.org/extensions/presets/v1"
	ParametersExtensionURI = "urn://androidaudioplugin.org/extensions/parameters/v1"
	MidiExtensionURI       = "urn://androidaudioplugin.org/extensions/midi2/v1"
	GuiExtensionURI        = "urn://androidaudioplugin.org/extensions/gui/v1"
)

var extensionURIs = [extensionCount]string{
	ExtensionPluginInfo: PluginInfoExtensionURI,
	ExtensionState:      StateExtensionURI,
	ExtensionPresets:    PresetsExtensionURI,
	ExtensionParameters: ParametersExtensionURI,
	ExtensionMidi:       MidiExtensionURI,
	ExtensionGui:        GuiExtensionURI,
}

// URI returns the metadata URI of the extension
func (id ExtensionID) URI() string {
	if id < 0 || id >= extensionCount {
		return ""
	}
	return extensionURIs[id]
}

func (id ExtensionID) String() string {
	return id.URI()
}

// ParseExtensionURI resolves a metadata URI to its ExtensionID.
func ParseExtensionURI(uri string) (ExtensionID, bool) {
	for i, u := range extensionURIs {
		if u == uri {
			return ExtensionID(i), true
		}
	}
	return -1, false
}

// StateExtension exposes the plugin state as an opaque blob.
type StateExtension interface {
	StateSize() int
	// State copies the current state into dst, growing it when needed,
	// and returns the filled slice.
	State(dst []byte) []byte
	SetState(data []byte) error
}

// Preset is one program of a plugin
type Preset struct {
	ID   int32
	Name string
	Data []byte
}

// PresetsExtension exposes the plugin programs.
type PresetsExtension interface {
	PresetCount() int
	Preset(index int, withData bool) (Preset, error)
	PresetIndex() int
	SetPresetIndex(index int) error
}

// ParameterInfo describes one parameter exported over the ABI
type ParameterInfo struct {
	ID       int32
	Path     string
	Name     string
	Min      float64
	Max      float64
	Default  float64
	Discrete bool
	Priority int32
}

// ParameterProperty selects a numeric property of a parameter
type ParameterProperty int32

const (
	PropertyMinValue ParameterProperty = iota
	PropertyMaxValue
	PropertyDefaultValue
	PropertyIsDiscrete
	PropertyPriority
)

// EnumerationItem is one named value of a discrete parameter
type EnumerationItem struct {
	Value float64
	Name  string
}

// ParametersExtension exposes the flattened parameter table.
type ParametersExtension interface {
	ParameterCount() int
	ParameterInfo(index int) (ParameterInfo, bool)
	ParameterProperty(id int32, property ParameterProperty) float64
	EnumerationCount(id int32) int
	Enumeration(id int32, index int) (EnumerationItem, bool)
}

// MidiProtocol is the MIDI representation a plugin expects on its MIDI ports
type MidiProtocol int32

const (
	MidiProtocol1 MidiProtocol = 1
	MidiProtocol2 MidiProtocol = 2
)

// MidiExtension reports the negotiated MIDI protocol.
type MidiExtension interface {
	Protocol() MidiProtocol
}

// PluginInfoExtension exposes the static description of a plugin.
type PluginInfoExtension interface {
	PluginInfo() *PluginInformation
}
