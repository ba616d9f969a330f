package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Choice creates a parameter builder for a multiple choice parameter. The
// plain value is the option index.
func Choice(id uint32, name string, options ...string) *Builder {
	parser := func(str string) (float64, error) {
		for i, opt := range options {
			if strings.EqualFold(strings.TrimSpace(str), opt) {
				return float64(i), nil
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}
	formatter := func(value float64) string {
		index := int(value + 0.5)
		if index >= 0 && index < len(options) {
			return options[index]
		}
		return "Unknown"
	}

	return New(id, name).
		Range(0, float64(max(len(options)-1, 0))).
		Values(options...).
		Default(0).
		Formatter(formatter, parser)
}

// GainParameter creates a standard gain parameter (-80 to +12dB)
func GainParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(-80, 12).
		Default(0).
		Unit("dB").
		Formatter(DecibelFormatter, DecibelParser)
}

// MixParameter creates a standard mix/blend parameter (0-100%)
func MixParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(100).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// FrequencyParameter creates a frequency parameter
func FrequencyParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// TimeParameter creates a time parameter in milliseconds
func TimeParameter(id uint32, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(id, name).
		Range(minMs, maxMs).
		Default(defaultMs).
		Unit("ms").
		Formatter(func(v float64) string {
			if v >= 1000 {
				return fmt.Sprintf("%.2f s", v/1000.0)
			}
			return fmt.Sprintf("%.1f ms", v)
		}, nil)
}

// BypassParameter creates a bypass on/off switch
func BypassParameter(id uint32, name string) *Builder {
	return Choice(id, name, "Active", "Bypassed")
}

// DecibelFormatter formats dB values
func DecibelFormatter(db float64) string {
	if db <= -80 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser parses dB strings
func DecibelParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	if strings.Contains(str, "inf") {
		return -80, nil
	}
	str = strings.TrimSpace(strings.TrimSuffix(str, "db"))
	return strconv.ParseFloat(str, 64)
}

// PercentFormatter formats percentage values
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(str, 64)
}

// FrequencyFormatter formats frequency values with Hz/kHz
func FrequencyFormatter(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// FrequencyParser parses frequency strings
func FrequencyParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	scale := 1.0
	if strings.HasSuffix(str, "khz") {
		scale = 1000
		str = strings.TrimSuffix(str, "khz")
	} else {
		str = strings.TrimSuffix(str, "hz")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	return v * scale, err
}

// OnOffFormatter formats boolean as On/Off
func OnOffFormatter(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	}
	return 0, fmt.Errorf("expected 'on' or 'off', got: %s", str)
}
