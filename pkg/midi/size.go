package midi

// EventSize returns the byte length of the event starting at data[0], which
// must be a status byte. System exclusive runs up to and including F7; -1
// is returned when another non-realtime status byte or the end of data
// comes first.
func EventSize(data []byte) int {
	if len(data) == 0 {
		return -1
	}
	status := data[0]
	if status == 0xF0 {
		for i := 1; i < len(data); i++ {
			if data[i] == 0xF7 {
				return i + 1
			}
			if data[i] >= 0x80 && !IsRealtime(data[i]) {
				return -1
			}
		}
		return -1
	}
	return StatusSize(status)
}

// StatusSize returns the length of a non-sysex message from its status byte.
func StatusSize(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	case 0xF0:
		switch status {
		case 0xF1, 0xF3:
			return 2
		case 0xF2:
			return 3
		default:
			return 1
		}
	default:
		return 3
	}
}

// IsRealtime reports whether status is a system realtime message, which
// neither uses nor cancels running status.
func IsRealtime(status byte) bool {
	return status >= 0xF8
}
