// Package introspect reads the declared input tensors of a model.
//
// Readers return inputs in declaration order with every dimension resolved
// to a concrete size. Dynamic dimensions are resolved only through explicit
// shape overrides; anything else is an *models.UnresolvedShapeError.
package introspect

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"profiling-bundler/core/models"
)

// Introspector returns the ordered input specs of a model
type Introspector interface {
	InputSpecs(ctx context.Context) ([]models.ModelInputSpec, error)
}

// ForModel picks a reader by file extension
func ForModel(path string, overrides map[string][]int) (Introspector, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return NewIRReader(path, overrides), nil
	case ".yaml", ".yml":
		return NewYAMLReader(path, overrides), nil
	default:
		return nil, fmt.Errorf("unsupported model description %q", path)
	}
}

// Static returns a fixed list of specs
type Static []models.ModelInputSpec

// InputSpecs implements Introspector
func (s Static) InputSpecs(_ context.Context) ([]models.ModelInputSpec, error) {
	if err := validateSpecs(s); err != nil {
		return nil, err
	}
	out := make([]models.ModelInputSpec, len(s))
	copy(out, s)
	return out, nil
}

// rawInput is a declared input before resolution
type rawInput struct {
	name        string
	dims        []string
	elementType string
}

func resolveInputs(raws []rawInput, overrides map[string][]int) ([]models.ModelInputSpec, error) {
	if err := checkOverrides(raws, overrides); err != nil {
		return nil, err
	}

	specs := make([]models.ModelInputSpec, 0, len(raws))
	for _, raw := range raws {
		elemType, err := models.ParseElementType(raw.name, raw.elementType)
		if err != nil {
			return nil, err
		}
		shape, err := resolveShape(raw.name, raw.dims, overrides[raw.name])
		if err != nil {
			return nil, err
		}
		specs = append(specs, models.ModelInputSpec{
			Name:        raw.name,
			Shape:       shape,
			ElementType: elemType,
		})
	}
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// checkOverrides rejects overrides for inputs the model does not declare
func checkOverrides(raws []rawInput, overrides map[string][]int) error {
	declared := make(map[string]bool, len(raws))
	for _, raw := range raws {
		declared[raw.name] = true
	}
	var unknown []string
	for name := range overrides {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("shape overrides name unknown inputs: %s", strings.Join(unknown, ", "))
}

// resolveShape turns declared dimensions into concrete sizes.
// An override replaces the declared shape and must keep its rank.
func resolveShape(input string, dims []string, override []int) ([]int, error) {
	if override != nil {
		if len(override) != len(dims) {
			return nil, fmt.Errorf("input %q: shape override has rank %d, model declares rank %d", input, len(override), len(dims))
		}
		shape := make([]int, len(override))
		for i, d := range override {
			if d < 0 {
				return nil, &models.UnresolvedShapeError{Input: input, Dim: i, Raw: strconv.Itoa(d)}
			}
			shape[i] = d
		}
		return shape, nil
	}

	shape := make([]int, len(dims))
	for i, raw := range dims {
		d, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || d < 0 {
			return nil, &models.UnresolvedShapeError{Input: input, Dim: i, Raw: raw}
		}
		shape[i] = d
	}
	return shape, nil
}

func validateSpecs(specs []models.ModelInputSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("model declares no inputs")
	}
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("model declares an input without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("input %q declared more than once", s.Name)
		}
		seen[s.Name] = true
		if s.ElementType.Size() == 0 {
			return &models.UnsupportedElementTypeError{Input: s.Name, Type: string(s.ElementType)}
		}
		for i, d := range s.Shape {
			if d < 0 {
				return &models.UnresolvedShapeError{Input: s.Name, Dim: i, Raw: strconv.Itoa(d)}
			}
		}
	}
	return nil
}
