package parquet_accumulator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/schema"
)

type (
	// ParquetSchemaAccumulator collects one parquet column per DataField, in
	// field order, and renders the parquet-go JSON schema for them.
	ParquetSchemaAccumulator struct {
		schema ParquetSchema
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"
)

func NewParquetAccumulator() ParquetSchemaAccumulator {
	return ParquetSchemaAccumulator{
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
	}
}

// FromDataFields builds the accumulator for a load configuration's fields.
func FromDataFields(fields []load_config.DataField) ParquetSchemaAccumulator {
	pa := NewParquetAccumulator()
	for _, f := range fields {
		pa.AddField(f)
	}
	return pa
}

// AddField appends the column for f unless one with the same name exists.
func (pa *ParquetSchemaAccumulator) AddField(f load_config.DataField) {
	if pa.fieldExists(f.Name()) {
		return
	}
	pa.schema.Fields = append(pa.schema.Fields, getParquetSchema(f))
}

func getParquetSchema(f load_config.DataField) *ParquetSchema {
	col := f.Column
	ps := &ParquetSchema{
		TagStructs: SchemaTag{
			Name:           col.Name,
			RepetitionType: Optional,
		},
	}
	switch {
	case col.IsComplex:
		ps.TagStructs.Type = "LIST"
		ps.Fields = append(ps.Fields, &ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "element",
				Type:           "BYTE_ARRAY",
				ConvertedType:  "UTF8",
				RepetitionType: Required,
			},
		})
	case col.IsDictionary && !f.IsMeasure:
		// surrogate keys
		ps.TagStructs.Type = "INT32"
	case col.Type == schema.Int:
		ps.TagStructs.Type = "INT64"
	case col.Type == schema.Double:
		ps.TagStructs.Type = "DOUBLE"
	case col.Type == schema.Date:
		ps.TagStructs.Type = "INT32"
		ps.TagStructs.ConvertedType = "DATE"
	case col.Type == schema.Timestamp:
		ps.TagStructs.Type = "INT64"
		ps.TagStructs.ConvertedType = "TIMESTAMP_MILLIS"
	default:
		ps.TagStructs.Type = "BYTE_ARRAY"
		ps.TagStructs.ConvertedType = "UTF8"
		ps.TagStructs.Encoding = "PLAIN"
	}
	return ps
}

func (pa *ParquetSchemaAccumulator) fieldExists(fieldName string) (exists bool) {
	for _, field := range pa.schema.Fields {
		if field.TagStructs.Name == fieldName {
			return true
		}
	}
	return
}

func (pa *ParquetSchemaAccumulator) GetColumnNames() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.TagStructs.Name)
	}
	return cols
}

func (ps *ParquetSchema) GetType() string {
	switch ps.TagStructs.Type {
	case "BYTE_ARRAY":
		return "string"
	case "DOUBLE":
		return "float"
	case "INT32":
		if ps.TagStructs.ConvertedType == "DATE" {
			return "date"
		}
		return "surrogate"
	case "INT64":
		if ps.TagStructs.ConvertedType == "TIMESTAMP_MILLIS" {
			return "timestamp"
		}
		return "int"
	case "LIST":
		return fmt.Sprintf("list(%s)", ps.Fields[0].GetType())
	default:
		return "unknown"
	}
}

// GetColumnTypes returns the types of columns in the same order as GetColumnNames
func (pa *ParquetSchemaAccumulator) GetColumnTypes() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.GetType())
	}
	return cols
}

// ToParquetJSONSchema recursively converts
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	var fields []*ParquetJSONSchema
	for _, field := range ps.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: fields,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	b, err := json.Marshal(pa.schema.ToParquetJSONSchema())
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}

// RowValue converts a value produced by the converter stage into what the
// parquet JSON writer expects for f's column.
func RowValue(f load_config.DataField, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if f.Column.Type == schema.Date && !f.Column.IsDictionary {
		return int32(t.UTC().Unix() / 86400)
	}
	return t.UnixMilli()
}
