package header

import (
	"fmt"
	"strings"
)

// HeaderMismatchError reports a header that does not fit the table schema.
// Source tells whether the DDL or the input file has to be fixed.
type HeaderMismatchError struct {
	Source   Source
	FileName string

	Missing    []string
	Unexpected []string
	Duplicate  []string
	// Misplaced is only filled with MatchOptions.StrictOrder
	Misplaced []string

	ExpectedCount int
	ActualCount   int
}

func (e *HeaderMismatchError) Error() string {
	var b strings.Builder
	if e.Source == HeaderFromFile {
		b.WriteString("CSV File provided is not proper. Column names in schema and csv header are not same. CSVFile Name : ")
		b.WriteString(e.FileName)
	} else {
		b.WriteString("CSV header provided in DDL is not proper. Column names in schema and CSV header are not the same.")
	}
	if e.ExpectedCount != e.ActualCount {
		fmt.Fprintf(&b, " expected %d columns, got %d.", e.ExpectedCount, e.ActualCount)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " missing columns: %s.", strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		fmt.Fprintf(&b, " unexpected columns: %s.", strings.Join(e.Unexpected, ", "))
	}
	if len(e.Duplicate) > 0 {
		fmt.Fprintf(&b, " duplicate columns: %s.", strings.Join(e.Duplicate, ", "))
	}
	if len(e.Misplaced) > 0 {
		fmt.Fprintf(&b, " out of order columns: %s.", strings.Join(e.Misplaced, ", "))
	}
	return b.String()
}
