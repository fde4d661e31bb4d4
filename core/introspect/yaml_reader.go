package introspect

import (
	"context"
	"fmt"
	"os"
	"strings"

	"profiling-bundler/core/models"

	"gopkg.in/yaml.v3"
)

// YAMLReader reads inputs from a model description file:
//
//	inputs:
//	  - name: input_ids
//	    shape: [1, 128]
//	    element_type: i64
//
// Dynamic dimensions are written as "?" or -1.
type YAMLReader struct {
	path      string
	overrides map[string][]int
}

// NewYAMLReader creates a reader for the description at path
func NewYAMLReader(path string, overrides map[string][]int) *YAMLReader {
	return &YAMLReader{path: path, overrides: overrides}
}

type modelDescription struct {
	Inputs []describedInput `yaml:"inputs"`
}

type describedInput struct {
	Name        string      `yaml:"name"`
	Shape       []yaml.Node `yaml:"shape"`
	ElementType string      `yaml:"element_type"`
}

// InputSpecs implements Introspector
func (r *YAMLReader) InputSpecs(_ context.Context) ([]models.ModelInputSpec, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", r.path, err)
	}
	return parseDescription(data, r.overrides)
}

func parseDescription(data []byte, overrides map[string][]int) ([]models.ModelInputSpec, error) {
	var desc modelDescription
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse model description: %w", err)
	}

	raws := make([]rawInput, 0, len(desc.Inputs))
	for _, in := range desc.Inputs {
		dims := make([]string, len(in.Shape))
		for i, node := range in.Shape {
			dims[i] = strings.TrimSpace(node.Value)
		}
		raws = append(raws, rawInput{name: in.Name, dims: dims, elementType: in.ElementType})
	}
	return resolveInputs(raws, overrides)
}
