// Package dataset provides text datasets used as the source of profiling inputs.
package dataset

import "io"

// TextDataset exposes a sample count and a restartable sequence of samples.
// A sample is one text, or several texts when the model consumes pairs.
type TextDataset interface {
	SampleCount() int
	// Features starts a new pass over the dataset yielding at most limit samples
	Features(limit int) (Iterator, error)
}

// Iterator yields samples until it returns io.EOF
type Iterator interface {
	Next() ([]string, error)
	Close() error
}

// Slice is an in-memory dataset
type Slice [][]string

// SampleCount implements TextDataset
func (s Slice) SampleCount() int {
	return len(s)
}

// Features implements TextDataset
func (s Slice) Features(limit int) (Iterator, error) {
	if limit < 0 || limit > len(s) {
		limit = len(s)
	}
	return &sliceIterator{samples: s[:limit]}, nil
}

type sliceIterator struct {
	samples [][]string
	pos     int
}

func (it *sliceIterator) Next() ([]string, error) {
	if it.pos >= len(it.samples) {
		return nil, io.EOF
	}
	sample := it.samples[it.pos]
	it.pos++
	return sample, nil
}

func (it *sliceIterator) Close() error {
	return nil
}
