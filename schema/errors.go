package schema

import "fmt"

// SchemaError reports a table schema that cannot be resolved.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for table %s: %s", e.Table, e.Reason)
}
