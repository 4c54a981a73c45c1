package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

type (
	// RowIterator yields raw records, one []string per row, and io.EOF at the end.
	RowIterator interface {
		Next() ([]string, error)
	}

	// CSVRowIterator reads delimited records from a reader.
	CSVRowIterator struct {
		r          *csv.Reader
		closer     io.Closer
		skipHeader bool
		started    bool
	}

	// SliceRowIterator serves records from memory.
	SliceRowIterator struct {
		rows [][]string
		pos  int
	}
)

// NewCSVRowIterator reads records separated by delimiter. When skipHeader is
// set the first record is dropped.
func NewCSVRowIterator(r io.Reader, delimiter string, skipHeader bool) (*CSVRowIterator, error) {
	comma := ','
	if delimiter != "" {
		d, size := utf8.DecodeRuneInString(delimiter)
		if size != len(delimiter) || d == '"' || d == '\n' || d == '\r' {
			return nil, fmt.Errorf("invalid delimiter %q", delimiter)
		}
		comma = d
	}
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	it := &CSVRowIterator{r: cr, skipHeader: skipHeader}
	if c, ok := r.(io.Closer); ok {
		it.closer = c
	}
	return it, nil
}

// OpenCSVFiles opens one iterator per file.
func OpenCSVFiles(paths []string, delimiter string, skipHeader bool) ([]RowIterator, error) {
	its := make([]RowIterator, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeIterators(its)
			return nil, fmt.Errorf("error in os.Open: %w", err)
		}
		it, err := NewCSVRowIterator(f, delimiter, skipHeader)
		if err != nil {
			f.Close()
			closeIterators(its)
			return nil, err
		}
		its = append(its, it)
	}
	return its, nil
}

func (it *CSVRowIterator) Next() ([]string, error) {
	if !it.started {
		it.started = true
		if it.skipHeader {
			if _, err := it.r.Read(); err != nil {
				return nil, err
			}
		}
	}
	return it.r.Read()
}

func (it *CSVRowIterator) Close() error {
	if it.closer == nil {
		return nil
	}
	return it.closer.Close()
}

func NewSliceRowIterator(rows [][]string) *SliceRowIterator {
	return &SliceRowIterator{rows: rows}
}

func (it *SliceRowIterator) Next() ([]string, error) {
	if it.pos >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.pos]
	it.pos++
	return row, nil
}

func closeIterators(its []RowIterator) error {
	var first error
	for _, it := range its {
		if c, ok := it.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
