package dataset

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain(t *testing.T, it Iterator) [][]string {
	t.Helper()
	defer it.Close()
	var samples [][]string
	for {
		sample, err := it.Next()
		if err == io.EOF {
			return samples
		}
		require.NoError(t, err)
		samples = append(samples, sample)
	}
}

func TestOpenCSV(t *testing.T) {
	path := writeDataset(t, "reviews.csv", "text,label\n\"great, really\",1\nbad,0\nfine,1\n")

	d, err := OpenCSV(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, d.SampleCount())

	it, err := d.Features(2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"great, really"}, {"bad"}}, drain(t, it))
}

func TestCSV_FeaturesIsRestartable(t *testing.T) {
	d, err := OpenCSV(writeDataset(t, "d.csv", "text\na\nb\n"), nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		it, err := d.Features(-1)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a"}, {"b"}}, drain(t, it))
	}
}

func TestCSV_SelectedColumns(t *testing.T) {
	path := writeDataset(t, "pairs.tsv", "id\tquestion\tcontext\n1\twho?\tme\n")

	d, err := OpenCSV(path, []string{"question", "context"})
	require.NoError(t, err)

	it, err := d.Features(10)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"who?", "me"}}, drain(t, it))

	_, err = OpenCSV(path, []string{"answer"})
	assert.Error(t, err)
}

func TestCSV_EmptyDataset(t *testing.T) {
	d, err := OpenCSV(writeDataset(t, "empty.csv", "text\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, d.SampleCount())

	it, err := d.Features(1)
	require.NoError(t, err)
	assert.Empty(t, drain(t, it))

	_, err = OpenCSV(writeDataset(t, "nothing.csv", ""), nil)
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	s := Slice{{"a"}, {"b"}, {"c"}}
	assert.Equal(t, 3, s.SampleCount())

	it, err := s.Features(2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, drain(t, it))
}
