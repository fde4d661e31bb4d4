// Package mapping holds the profiling input file mapping: each model input
// name and the ordered list of files generated for it. The mapping is owned by
// a single run and only ever grows.
package mapping

import (
	"bytes"
	"encoding/json"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ProfilingInputFileMapping maps input names to generated files in first-insertion order
type ProfilingInputFileMapping struct {
	inputs *linkedhashmap.Map
}

// New creates an empty mapping
func New() *ProfilingInputFileMapping {
	return &ProfilingInputFileMapping{inputs: linkedhashmap.New()}
}

// AddInputFile appends path to the files of inputName
func (m *ProfilingInputFileMapping) AddInputFile(inputName, path string) {
	m.inputs.Put(inputName, append(m.files(inputName), path))
}

// Get returns a copy of the files of inputName, nil if none were added
func (m *ProfilingInputFileMapping) Get(inputName string) []string {
	files := m.files(inputName)
	if files == nil {
		return nil
	}
	out := make([]string, len(files))
	copy(out, files)
	return out
}

func (m *ProfilingInputFileMapping) files(inputName string) []string {
	value, ok := m.inputs.Get(inputName)
	if !ok {
		return nil
	}
	return value.([]string)
}

// Names returns input names in first-insertion order
func (m *ProfilingInputFileMapping) Names() []string {
	keys := m.inputs.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Len returns the number of input names
func (m *ProfilingInputFileMapping) Len() int {
	return m.inputs.Size()
}

// Each calls fn for every input in first-insertion order
func (m *ProfilingInputFileMapping) Each(fn func(inputName string, files []string)) {
	m.inputs.Each(func(key, value interface{}) {
		fn(key.(string), value.([]string))
	})
}

// MarshalJSON writes the mapping as an object keeping input order
func (m *ProfilingInputFileMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	first := true
	m.Each(func(name string, files []string) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var key, value []byte
		if key, err = json.Marshal(name); err != nil {
			return
		}
		if value, err = json.Marshal(files); err != nil {
			return
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
