// Package tokenizer turns raw text samples into the named integer arrays a
// model consumes. The Adapter binds the model's input shapes once per run and
// rejects any output that does not fill a declared shape exactly.
package tokenizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"profiling-bundler/core/models"
)

// ErrEmptySample is returned for samples without any text
var ErrEmptySample = errors.New("sample contains no text")

// Tokenizer encodes one sample (a single text or a text pair) into named arrays
type Tokenizer interface {
	Encode(texts []string, params Params) (map[string][]int64, error)
}

// Params are the shape-derived encoding parameters
type Params struct {
	MaxLength      int
	PadToMaxLength bool
	Truncation     bool
}

// ParamsFromShapes derives encoding parameters from the model input shapes.
// The sequence length is the innermost dimension and must agree across inputs.
func ParamsFromShapes(shapes map[string][]int) (Params, error) {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)

	seqLen := 0
	for _, name := range names {
		shape := shapes[name]
		if len(shape) == 0 {
			return Params{}, fmt.Errorf("input %q is a scalar, expected a sequence", name)
		}
		last := shape[len(shape)-1]
		if seqLen != 0 && last != seqLen {
			return Params{}, fmt.Errorf("input %q has sequence length %d, other inputs have %d", name, last, seqLen)
		}
		seqLen = last
	}
	if seqLen <= 0 {
		return Params{}, fmt.Errorf("cannot derive a positive sequence length from input shapes")
	}

	return Params{MaxLength: seqLen, PadToMaxLength: true, Truncation: true}, nil
}

// NamedArray is one model input produced from a sample
type NamedArray struct {
	Name   string
	Values []int64
}

// Adapter binds a tokenizer to a model's inputs
type Adapter struct {
	tokenizer Tokenizer
	specs     []models.ModelInputSpec
	params    Params
}

// NewAdapter derives the encoding parameters from specs and fixes them for the adapter's lifetime
func NewAdapter(tokenizer Tokenizer, specs []models.ModelInputSpec) (*Adapter, error) {
	if tokenizer == nil {
		return nil, errors.New("tokenizer is required")
	}
	params, err := ParamsFromShapes(models.Shapes(specs))
	if err != nil {
		return nil, err
	}
	bound := make([]models.ModelInputSpec, len(specs))
	copy(bound, specs)

	return &Adapter{tokenizer: tokenizer, specs: bound, params: params}, nil
}

// Params returns the bound encoding parameters
func (a *Adapter) Params() Params {
	return a.params
}

// Tokenize encodes one sample and returns one array per model input, in model input order
func (a *Adapter) Tokenize(sample []string) ([]NamedArray, error) {
	if isEmpty(sample) {
		return nil, ErrEmptySample
	}

	encoded, err := a.tokenizer.Encode(sample, a.params)
	if err != nil {
		return nil, fmt.Errorf("tokenizer failed: %w", err)
	}

	arrays := make([]NamedArray, 0, len(a.specs))
	for _, spec := range a.specs {
		values := encoded[spec.Name]
		if want := spec.NumElements(); len(values) != want {
			return nil, &models.ShapeMismatchError{Input: spec.Name, Want: want, Got: len(values)}
		}
		arrays = append(arrays, NamedArray{Name: spec.Name, Values: values})
	}
	return arrays, nil
}

func isEmpty(sample []string) bool {
	for _, text := range sample {
		if strings.TrimSpace(text) != "" {
			return false
		}
	}
	return true
}
