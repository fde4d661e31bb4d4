package introspect

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"profiling-bundler/core/models"
)

// IRReader reads inputs from an OpenVINO IR topology (.xml)
type IRReader struct {
	path      string
	overrides map[string][]int
}

// NewIRReader creates a reader for the IR file at path
func NewIRReader(path string, overrides map[string][]int) *IRReader {
	return &IRReader{path: path, overrides: overrides}
}

type irNet struct {
	XMLName xml.Name  `xml:"net"`
	Name    string    `xml:"name,attr"`
	Layers  []irLayer `xml:"layers>layer"`
}

type irLayer struct {
	ID      string   `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Data    irData   `xml:"data"`
	Outputs []irPort `xml:"output>port"`
}

type irData struct {
	Shape       *string `xml:"shape,attr"`
	ElementType string  `xml:"element_type,attr"`
}

type irPort struct {
	ID    string   `xml:"id,attr"`
	Names string   `xml:"names,attr"`
	Dims  []string `xml:"dim"`
}

// InputSpecs implements Introspector
func (r *IRReader) InputSpecs(_ context.Context) ([]models.ModelInputSpec, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", r.path, err)
	}
	return parseIR(data, r.overrides)
}

func parseIR(data []byte, overrides map[string][]int) ([]models.ModelInputSpec, error) {
	var net irNet
	if err := xml.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("failed to parse IR: %w", err)
	}

	var raws []rawInput
	for _, layer := range net.Layers {
		if layer.Type != "Parameter" {
			continue
		}
		raws = append(raws, rawInput{
			name:        parameterName(layer),
			dims:        parameterDims(layer),
			elementType: layer.Data.ElementType,
		})
	}
	return resolveInputs(raws, overrides)
}

// parameterName prefers the first tensor name of the output port
func parameterName(layer irLayer) string {
	for _, port := range layer.Outputs {
		for _, name := range strings.Split(port.Names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				return name
			}
		}
	}
	return layer.Name
}

// parameterDims prefers the shape attribute; older IRs only carry port dims
func parameterDims(layer irLayer) []string {
	if layer.Data.Shape != nil {
		if strings.TrimSpace(*layer.Data.Shape) == "" {
			return nil
		}
		return strings.Split(*layer.Data.Shape, ",")
	}
	if len(layer.Outputs) > 0 {
		return layer.Outputs[0].Dims
	}
	return nil
}
