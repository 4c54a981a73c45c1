package schema

import (
	"fmt"
	"path"
	"strings"
)

type (
	DataType string

	// TableIdentifier locates a table in the store.
	TableIdentifier struct {
		DatabaseName string `json:"database_name"`
		TableName    string `json:"table_name"`
		StorePath    string `json:"store_path"`
		TableID      string `json:"table_id"`
	}

	ColumnDescriptor struct {
		Name         string   `json:"name"`
		Type         DataType `json:"type"`
		IsComplex    bool     `json:"is_complex"`
		IsDictionary bool     `json:"is_dictionary"`
		// Ordinal is the position of the column in the declared schema
		Ordinal int `json:"ordinal"`
	}

	// TableSchema is the column layout of one table within a descriptor.
	TableSchema struct {
		TableName  string             `json:"table_name"`
		Dimensions []ColumnDescriptor `json:"dimensions"`
		Measures   []ColumnDescriptor `json:"measures"`
	}

	// TableDescriptor is owned by the caller and only read during a load.
	TableDescriptor struct {
		Identifier    TableIdentifier `json:"identifier"`
		FactTableName string          `json:"fact_table_name"`
		// Tables holds the fact table and any child tables, keyed by lower-cased name
		Tables map[string]TableSchema `json:"tables"`
	}
)

const (
	String    DataType = "string"
	Int       DataType = "int"
	Double    DataType = "double"
	Date      DataType = "date"
	Timestamp DataType = "timestamp"
	Array     DataType = "array"
	Struct    DataType = "struct"

	// DummyMeasureName is added by the DDL layer when a table declares no measures.
	DummyMeasureName = "default_dummy_measure"
)

// AbsolutePath is {storePath}/{database}/{table}.
func (ti TableIdentifier) AbsolutePath() string {
	return path.Join(ti.StorePath, ti.DatabaseName, ti.TableName)
}

func (ti TableIdentifier) String() string {
	return ti.DatabaseName + "." + ti.TableName
}

func (dt DataType) IsTemporal() bool {
	return dt == Date || dt == Timestamp
}

func (dt DataType) IsComplex() bool {
	return dt == Array || dt == Struct
}

// NewTableDescriptor builds a descriptor whose fact table is tableName.
func NewTableDescriptor(id TableIdentifier, dims, measures []ColumnDescriptor) *TableDescriptor {
	for i := range dims {
		dims[i].Ordinal = i
	}
	for i := range measures {
		measures[i].Ordinal = len(dims) + i
	}
	return &TableDescriptor{
		Identifier:    id,
		FactTableName: id.TableName,
		Tables: map[string]TableSchema{
			strings.ToLower(id.TableName): {
				TableName:  id.TableName,
				Dimensions: dims,
				Measures:   measures,
			},
		},
	}
}

func (td *TableDescriptor) lookup(tableName string) (TableSchema, bool) {
	if td.Tables == nil {
		return TableSchema{}, false
	}
	ts, ok := td.Tables[strings.ToLower(tableName)]
	return ts, ok
}

// DimensionsByTableName returns the ordered dimension columns of tableName, or nil.
func (td *TableDescriptor) DimensionsByTableName(tableName string) []ColumnDescriptor {
	ts, _ := td.lookup(tableName)
	return ts.Dimensions
}

// MeasuresByTableName returns the ordered measure columns of tableName, or nil.
func (td *TableDescriptor) MeasuresByTableName(tableName string) []ColumnDescriptor {
	ts, _ := td.lookup(tableName)
	return ts.Measures
}

// Validate checks the descriptor is internally consistent.
func (td *TableDescriptor) Validate() error {
	if td.Identifier.DatabaseName == "" || td.Identifier.TableName == "" {
		return &SchemaError{Table: td.Identifier.String(), Reason: "missing database or table name"}
	}
	for _, name := range []string{td.Identifier.DatabaseName, td.Identifier.TableName} {
		if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
			return &SchemaError{Table: td.Identifier.String(), Reason: fmt.Sprintf("name %q must not contain path separators or \"..\"", name)}
		}
	}
	ts, ok := td.lookup(td.FactTableName)
	if !ok {
		return &SchemaError{Table: td.Identifier.String(), Reason: fmt.Sprintf("fact table %q not found", td.FactTableName)}
	}
	seen := make(map[string]struct{}, len(ts.Dimensions)+len(ts.Measures))
	for _, col := range append(append([]ColumnDescriptor{}, ts.Dimensions...), ts.Measures...) {
		if col.Name == "" {
			return &SchemaError{Table: td.Identifier.String(), Reason: "column with empty name"}
		}
		key := strings.ToLower(col.Name)
		if _, exists := seen[key]; exists {
			return &SchemaError{Table: td.Identifier.String(), Reason: fmt.Sprintf("duplicate column %q", col.Name)}
		}
		seen[key] = struct{}{}
	}
	return nil
}
