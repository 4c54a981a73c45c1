package schema

import "fmt"

// Resolve returns the fact table's dimensions and measures in declared schema order.
func Resolve(td *TableDescriptor) (dims, measures []ColumnDescriptor, err error) {
	if td == nil {
		return nil, nil, &SchemaError{Table: "<nil>", Reason: "no table descriptor"}
	}
	ts, ok := td.lookup(td.FactTableName)
	if !ok {
		return nil, nil, &SchemaError{
			Table:  td.Identifier.String(),
			Reason: fmt.Sprintf("fact table %q not found", td.FactTableName),
		}
	}

	dims = make([]ColumnDescriptor, len(ts.Dimensions))
	copy(dims, ts.Dimensions)
	measures = make([]ColumnDescriptor, len(ts.Measures))
	copy(measures, ts.Measures)
	return dims, measures, nil
}

// ExpectedColumns is dims then measures, without the dummy measure.
func ExpectedColumns(dims, measures []ColumnDescriptor) []ColumnDescriptor {
	out := make([]ColumnDescriptor, 0, len(dims)+len(measures))
	out = append(out, dims...)
	for _, m := range measures {
		if m.Name == DummyMeasureName {
			continue
		}
		out = append(out, m)
	}
	return out
}
