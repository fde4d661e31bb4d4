// Package encoder writes model inputs as raw tensor dumps.
//
// A file holds exactly len(values) * elementSize bytes in little-endian order:
// no header, no length prefix. The profiling harness reads these files
// directly, so the layout must not change.
package encoder

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"profiling-bundler/core/models"

	"github.com/x448/float16"
)

// FileExtension is used for every generated input file
const FileExtension = ".bin"

var byteOrder = binary.LittleEndian

// Encoder writes input files into a single directory
type Encoder struct {
	dir string
}

// New creates an encoder writing into dir; dir must exist
func New(dir string) *Encoder {
	return &Encoder{dir: dir}
}

// Dir returns the destination directory
func (e *Encoder) Dir() string {
	return e.dir
}

// FileName returns the file name for the index-th instance of an input
func FileName(inputName string, index int) string {
	return fmt.Sprintf("%s_%03d%s", inputName, index, FileExtension)
}

// Encode casts values to elemType and writes them to {inputName}_{index:03d}.bin,
// replacing any existing file. It returns the written path.
func (e *Encoder) Encode(index int, inputName string, values []int64, elemType models.ElementType) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("input %q: negative index %d", inputName, index)
	}
	buf, err := Marshal(values, elemType)
	if err != nil {
		return "", fmt.Errorf("input %q: %w", inputName, err)
	}

	path := filepath.Join(e.dir, FileName(inputName, index))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Marshal casts values to elemType and returns their raw bytes.
// Casts truncate like a C conversion; precision loss is intended.
func Marshal(values []int64, elemType models.ElementType) ([]byte, error) {
	size := elemType.Size()
	if size == 0 {
		return nil, &models.UnsupportedElementTypeError{Type: string(elemType)}
	}

	buf := make([]byte, len(values)*size)
	for i, v := range values {
		b := buf[i*size : (i+1)*size]
		switch elemType {
		case models.ElementTypeU8:
			b[0] = uint8(v)
		case models.ElementTypeI8:
			b[0] = uint8(int8(v))
		case models.ElementTypeI16:
			byteOrder.PutUint16(b, uint16(int16(v)))
		case models.ElementTypeI32:
			byteOrder.PutUint32(b, uint32(int32(v)))
		case models.ElementTypeI64:
			byteOrder.PutUint64(b, uint64(v))
		case models.ElementTypeF16:
			byteOrder.PutUint16(b, float16.Fromfloat32(float32(v)).Bits())
		case models.ElementTypeF32:
			byteOrder.PutUint32(b, math.Float32bits(float32(v)))
		case models.ElementTypeF64:
			byteOrder.PutUint64(b, math.Float64bits(float64(v)))
		}
	}
	return buf, nil
}

// Unmarshal decodes raw bytes of elemType into float64 values
func Unmarshal(buf []byte, elemType models.ElementType) ([]float64, error) {
	size := elemType.Size()
	if size == 0 {
		return nil, &models.UnsupportedElementTypeError{Type: string(elemType)}
	}
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a multiple of the %s element size %d", len(buf), elemType, size)
	}

	values := make([]float64, len(buf)/size)
	for i := range values {
		b := buf[i*size : (i+1)*size]
		switch elemType {
		case models.ElementTypeU8:
			values[i] = float64(b[0])
		case models.ElementTypeI8:
			values[i] = float64(int8(b[0]))
		case models.ElementTypeI16:
			values[i] = float64(int16(byteOrder.Uint16(b)))
		case models.ElementTypeI32:
			values[i] = float64(int32(byteOrder.Uint32(b)))
		case models.ElementTypeI64:
			values[i] = float64(int64(byteOrder.Uint64(b)))
		case models.ElementTypeF16:
			values[i] = float64(float16.Frombits(byteOrder.Uint16(b)).Float32())
		case models.ElementTypeF32:
			values[i] = float64(math.Float32frombits(byteOrder.Uint32(b)))
		case models.ElementTypeF64:
			values[i] = math.Float64frombits(byteOrder.Uint64(b))
		}
	}
	return values, nil
}

// Decode reads an input file back
func Decode(path string, elemType models.ElementType) ([]float64, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(buf, elemType)
}
