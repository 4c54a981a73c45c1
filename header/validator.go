package header

import (
	"github.com/danthegoodman1/icedb/schema"
)

// Validate checks that the header names exactly the table's columns (dims and
// measures, without the dummy measure). It returns nil or *HeaderMismatchError.
func Validate(h Header, dims, measures []schema.ColumnDescriptor, opts MatchOptions) error {
	expected := schema.ExpectedColumns(dims, measures)
	fields := h.Fields()

	mismatch := &HeaderMismatchError{
		Source:        h.Source,
		FileName:      h.FileName,
		ExpectedCount: len(expected),
		ActualCount:   len(fields),
	}

	expectedIdx := make(map[string]int, len(expected))
	for i, col := range expected {
		expectedIdx[opts.Normalize(col.Name)] = i
	}

	seen := make(map[string]int, len(fields))
	for pos, field := range fields {
		key := opts.Normalize(field)
		if _, dup := seen[key]; dup {
			mismatch.Duplicate = append(mismatch.Duplicate, field)
			continue
		}
		seen[key] = pos
		i, ok := expectedIdx[key]
		if !ok {
			mismatch.Unexpected = append(mismatch.Unexpected, field)
			continue
		}
		if opts.StrictOrder && i != pos {
			mismatch.Misplaced = append(mismatch.Misplaced, field)
		}
	}
	for _, col := range expected {
		if _, ok := seen[opts.Normalize(col.Name)]; !ok {
			mismatch.Missing = append(mismatch.Missing, col.Name)
		}
	}

	if mismatch.ExpectedCount != mismatch.ActualCount ||
		len(mismatch.Missing) > 0 ||
		len(mismatch.Unexpected) > 0 ||
		len(mismatch.Duplicate) > 0 ||
		len(mismatch.Misplaced) > 0 {
		return mismatch
	}
	return nil
}

// IndexOf maps each expected column to its position in the header. Only
// meaningful for a header that passed Validate.
func IndexOf(h Header, columns []schema.ColumnDescriptor, opts MatchOptions) map[string]int {
	pos := make(map[string]int, len(columns))
	for i, field := range h.Fields() {
		pos[opts.Normalize(field)] = i
	}
	out := make(map[string]int, len(columns))
	for _, col := range columns {
		if i, ok := pos[opts.Normalize(col.Name)]; ok {
			out[col.Name] = i
		}
	}
	return out
}
