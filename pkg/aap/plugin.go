package aap

// Factory creates plugin instances. It is the entry point a plugin library
// exposes to hosts.
type Factory interface {
	Instantiate(pluginID string, sampleRate int, host *HostInfo) (Plugin, error)
	Release(p Plugin)
}

// Plugin is one instantiated plugin.
//
// Prepare, Activate, Deactivate and Extension calls come from a control
// thread. Process is called from the audio thread and must not block.
type Plugin interface {
	Prepare(buffer Buffer) error
	Activate() error
	Process(buffer Buffer, frameCount int, timeoutNanos int64) error
	Deactivate() error
	Extension(id ExtensionID) any
}

// GetExtension returns the extension registered under id if it has type T.
func GetExtension[T any](p Plugin, id ExtensionID) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	ext, ok := p.Extension(id).(T)
	if !ok {
		return zero, false
	}
	return ext, true
}
