package models

import "fmt"

// ElementType is a tensor element type, named the way OpenVINO names them
type ElementType string

const (
	ElementTypeU8  ElementType = "u8"
	ElementTypeI8  ElementType = "i8"
	ElementTypeI16 ElementType = "i16"
	ElementTypeI32 ElementType = "i32"
	ElementTypeI64 ElementType = "i64"
	ElementTypeF16 ElementType = "f16"
	ElementTypeF32 ElementType = "f32"
	ElementTypeF64 ElementType = "f64"
)

var elementTypeSizes = map[ElementType]int{
	ElementTypeU8:  1,
	ElementTypeI8:  1,
	ElementTypeI16: 2,
	ElementTypeI32: 4,
	ElementTypeI64: 8,
	ElementTypeF16: 2,
	ElementTypeF32: 4,
	ElementTypeF64: 8,
}

// ParseElementType maps a type name to a supported element type.
// inputName is only used for the error message.
func ParseElementType(inputName, name string) (ElementType, error) {
	t := ElementType(name)
	if _, ok := elementTypeSizes[t]; !ok {
		return "", &UnsupportedElementTypeError{Input: inputName, Type: name}
	}
	return t, nil
}

// Size returns the width of one element in bytes, 0 for unknown types
func (t ElementType) Size() int {
	return elementTypeSizes[t]
}

// ModelInputSpec describes one declared model input tensor
type ModelInputSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Shape       []int       `json:"shape" yaml:"shape"`
	ElementType ElementType `json:"element_type" yaml:"element_type"`
}

// NumElements returns the product of the shape
func (s ModelInputSpec) NumElements() int {
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// ByteSize returns the size of one encoded instance of this input
func (s ModelInputSpec) ByteSize() int {
	return s.NumElements() * s.ElementType.Size()
}

// Shapes indexes input shapes by name
func Shapes(specs []ModelInputSpec) map[string][]int {
	shapes := make(map[string][]int, len(specs))
	for _, s := range specs {
		shapes[s.Name] = s.Shape
	}
	return shapes
}

// UnresolvedShapeError is returned when a dimension has no concrete value
type UnresolvedShapeError struct {
	Input string
	Dim   int
	Raw   string
}

func (e *UnresolvedShapeError) Error() string {
	return fmt.Sprintf("input %q: dimension %d (%q) cannot be resolved to a concrete size", e.Input, e.Dim, e.Raw)
}

// UnsupportedElementTypeError is returned for element types the encoder cannot write
type UnsupportedElementTypeError struct {
	Input string
	Type  string
}

func (e *UnsupportedElementTypeError) Error() string {
	return fmt.Sprintf("input %q: unsupported element type %q", e.Input, e.Type)
}

// ShapeMismatchError is returned when a tokenized array does not fill the declared shape exactly
type ShapeMismatchError struct {
	Input string
	Want  int
	Got   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("input %q: expected %d elements, tokenizer produced %d", e.Input, e.Want, e.Got)
}
