package aap

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// PluginInformation is the static description of a plugin
type PluginInformation struct {
	PluginID     string
	DisplayName  string
	Manufacturer string
	Author       string
	Version      string
	PackageName  string
	Category     string
	Library      string
	Entrypoint   string
	Extensions   []string
	Ports        []PortInfo
	Parameters   []ParameterInfo
}

// IsInstrument reports whether the category describes an instrument.
func (p *PluginInformation) IsInstrument() bool {
	c := strings.ToLower(p.Category)
	return strings.Contains(c, "instrument") || strings.Contains(c, "synth")
}

// HasExtension reports whether the metadata lists the extension.
func (p *PluginInformation) HasExtension(id ExtensionID) bool {
	uri := id.URI()
	for _, e := range p.Extensions {
		if e == uri {
			return true
		}
	}
	return false
}

// CountPorts counts ports matching direction and content.
func (p *PluginInformation) CountPorts(direction PortDirection, content ContentType) int {
	n := 0
	for _, port := range p.Ports {
		if port.Direction == direction && port.Content == content {
			n++
		}
	}
	return n
}

type xmlPlugins struct {
	XMLName xml.Name    `xml:"plugins"`
	Plugins []xmlPlugin `xml:"plugin"`
}

type xmlPlugin struct {
	Name         string         `xml:"name,attr"`
	Category     string         `xml:"category,attr"`
	Author       string         `xml:"author,attr"`
	Manufacturer string         `xml:"manufacturer,attr"`
	Version      string         `xml:"version,attr"`
	UniqueID     string         `xml:"unique-id,attr"`
	Library      string         `xml:"library,attr"`
	Entrypoint   string         `xml:"entrypoint,attr"`
	Extensions   []xmlExtension `xml:"extensions>extension"`
	Parameters   []xmlParameter `xml:"parameters>parameter"`
	Ports        []xmlPort      `xml:"ports>port"`
}

type xmlExtension struct {
	URI string `xml:"uri,attr"`
}

type xmlParameter struct {
	ID      int32   `xml:"id,attr"`
	Name    string  `xml:"name,attr"`
	Minimum float64 `xml:"minimum,attr"`
	Maximum float64 `xml:"maximum,attr"`
	Default float64 `xml:"default,attr"`
}

type xmlPort struct {
	Direction string `xml:"direction,attr"`
	Content   string `xml:"content,attr"`
	Name      string `xml:"name,attr"`
}

// ParseMetadata reads a plugin metadata document. packageName is recorded
// on every plugin found in it.
func ParseMetadata(r io.Reader, packageName string) ([]*PluginInformation, error) {
	var doc xmlPlugins
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse plugin metadata: %w", err)
	}

	result := make([]*PluginInformation, 0, len(doc.Plugins))
	for _, xp := range doc.Plugins {
		if xp.UniqueID == "" {
			return nil, fmt.Errorf("plugin %q has no unique-id", xp.Name)
		}
		info := &PluginInformation{
			PluginID:     xp.UniqueID,
			DisplayName:  xp.Name,
			Manufacturer: xp.Manufacturer,
			Author:       xp.Author,
			Version:      xp.Version,
			PackageName:  packageName,
			Category:     xp.Category,
			Library:      xp.Library,
			Entrypoint:   xp.Entrypoint,
		}
		for _, e := range xp.Extensions {
			info.Extensions = append(info.Extensions, e.URI)
		}
		for i, p := range xp.Ports {
			info.Ports = append(info.Ports, PortInfo{
				Index:     int32(i),
				Name:      p.Name,
				Direction: ParsePortDirection(p.Direction),
				Content:   ParseContentType(p.Content),
			})
		}
		for _, p := range xp.Parameters {
			info.Parameters = append(info.Parameters, ParameterInfo{
				ID:      p.ID,
				Name:    p.Name,
				Min:     p.Minimum,
				Max:     p.Maximum,
				Default: p.Default,
			})
		}
		result = append(result, info)
	}
	return result, nil
}
