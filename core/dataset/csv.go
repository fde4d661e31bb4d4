package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CSV is a delimited text dataset with a header row.
// Files ending in .tsv or .txt are tab separated.
type CSV struct {
	path    string
	comma   rune
	columns []int
	count   int
}

// OpenCSV validates the header and counts the samples of the file at path.
// columns selects the text columns of a sample; empty selects the first column.
func OpenCSV(path string, columns []string) (*CSV, error) {
	d := &CSV{path: path, comma: delimiterFor(path)}

	f, r, err := d.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset %s has no header row", path)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if d.columns, err = resolveColumns(header, columns); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		d.count++
	}
	return d, nil
}

// SampleCount implements TextDataset
func (d *CSV) SampleCount() int {
	return d.count
}

// Features implements TextDataset
func (d *CSV) Features(limit int) (Iterator, error) {
	f, r, err := d.open()
	if err != nil {
		return nil, err
	}
	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read header of %s: %w", d.path, err)
	}
	if limit < 0 {
		limit = d.count
	}
	return &csvIterator{file: f, reader: r, columns: d.columns, remaining: limit}, nil
}

func (d *CSV) open() (*os.File, *csv.Reader, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	r := csv.NewReader(f)
	r.Comma = d.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return f, r, nil
}

type csvIterator struct {
	file      *os.File
	reader    *csv.Reader
	columns   []int
	remaining int
}

func (it *csvIterator) Next() ([]string, error) {
	if it.remaining <= 0 {
		return nil, io.EOF
	}
	record, err := it.reader.Read()
	if err != nil {
		return nil, err
	}
	it.remaining--

	sample := make([]string, len(it.columns))
	for i, col := range it.columns {
		if col >= len(record) {
			return nil, fmt.Errorf("row has %d fields, text column %d is missing", len(record), col)
		}
		sample[i] = record[col]
	}
	return sample, nil
}

func (it *csvIterator) Close() error {
	return it.file.Close()
}

func resolveColumns(header, columns []string) ([]int, error) {
	if len(header) == 0 {
		return nil, errors.New("header row is empty")
	}
	if len(columns) == 0 {
		return []int{0}, nil
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	resolved := make([]int, len(columns))
	for i, name := range columns {
		col, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("text column %q not found in header %v", name, header)
		}
		resolved[i] = col
	}
	return resolved, nil
}

func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}
