package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilingInputFileMapping_AddInputFile(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Get("input_ids"))

	m.AddInputFile("input_ids", "/b/input_ids_000.bin")
	m.AddInputFile("attention_mask", "/b/attention_mask_000.bin")
	m.AddInputFile("input_ids", "/b/input_ids_001.bin")
	m.AddInputFile("attention_mask", "/b/attention_mask_001.bin")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"input_ids", "attention_mask"}, m.Names())
	assert.Equal(t, []string{"/b/input_ids_000.bin", "/b/input_ids_001.bin"}, m.Get("input_ids"))
	assert.Equal(t, []string{"/b/attention_mask_000.bin", "/b/attention_mask_001.bin"}, m.Get("attention_mask"))
}

func TestProfilingInputFileMapping_Each(t *testing.T) {
	m := New()
	m.AddInputFile("b", "b0")
	m.AddInputFile("a", "a0")

	var visited []string
	m.Each(func(name string, files []string) {
		visited = append(visited, name+"="+files[0])
	})
	assert.Equal(t, []string{"b=b0", "a=a0"}, visited)
}

func TestProfilingInputFileMapping_MarshalJSON(t *testing.T) {
	m := New()
	m.AddInputFile("input_ids", "x_000.bin")
	m.AddInputFile("attention_mask", "y_000.bin")
	m.AddInputFile("input_ids", "x_001.bin")

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"input_ids":["x_000.bin","x_001.bin"],"attention_mask":["y_000.bin"]}`, string(raw))

	empty, err := json.Marshal(New())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}
