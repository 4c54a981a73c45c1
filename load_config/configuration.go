package load_config

import (
	"github.com/danthegoodman1/icedb/header"
	"github.com/danthegoodman1/icedb/schema"
)

type (
	// DataField is one column as the load pipeline sees it.
	DataField struct {
		Column schema.ColumnDescriptor
		// DateFormat is a SimpleDateFormat pattern, only used by temporal columns
		DateFormat string
		IsMeasure  bool
	}

	BadRecordAction string

	// LoadConfiguration is assembled once per task and only read afterwards.
	// DataFields are ordered non-complex dimensions, complex dimensions, then
	// measures, which is the layout of the sort key the Sorter and Writer rely on.
	LoadConfiguration struct {
		tableIdentifier schema.TableIdentifier
		dataFields      []DataField
		header          header.Header
		match           header.MatchOptions
		partitionID     string
		segmentID       string
		taskNo          string
		properties      map[string]any
		locations       *TaskLocations
	}
)

const (
	PropertyComplexDelimiters       = "COMPLEX_DELIMITERS"
	PropertySerializationNullFormat = "SERIALIZATION_NULL_FORMAT"
	PropertyFactTimeStamp           = "FACT_TIME_STAMP"
	PropertyBadRecordsLoggerEnable  = "BAD_RECORDS_LOGGER_ENABLE"
	PropertyBadRecordsLoggerAction  = "BAD_RECORDS_LOGGER_ACTION"
	PropertyFactFilePath            = "FACT_FILE_PATH"
)

const (
	BadRecordForce    BadRecordAction = "FORCE"
	BadRecordRedirect BadRecordAction = "REDIRECT"
	BadRecordIgnore   BadRecordAction = "IGNORE"
	BadRecordFail     BadRecordAction = "FAIL"
)

func (f DataField) Name() string {
	return f.Column.Name
}

func (c *LoadConfiguration) TableIdentifier() schema.TableIdentifier {
	return c.tableIdentifier
}

// DataFields returns a copy of the ordered fields.
func (c *LoadConfiguration) DataFields() []DataField {
	out := make([]DataField, len(c.dataFields))
	copy(out, c.dataFields)
	return out
}

func (c *LoadConfiguration) NumFields() int {
	return len(c.dataFields)
}

func (c *LoadConfiguration) Field(i int) DataField {
	return c.dataFields[i]
}

// SortKeyLength is the number of leading fields that make up the sort key,
// i.e. the non-complex dimensions.
func (c *LoadConfiguration) SortKeyLength() int {
	n := 0
	for _, f := range c.dataFields {
		if f.Column.IsComplex || f.IsMeasure {
			break
		}
		n++
	}
	return n
}

func (c *LoadConfiguration) Header() header.Header {
	return c.header
}

func (c *LoadConfiguration) MatchOptions() header.MatchOptions {
	return c.match
}

func (c *LoadConfiguration) PartitionID() string {
	return c.partitionID
}

func (c *LoadConfiguration) SegmentID() string {
	return c.segmentID
}

func (c *LoadConfiguration) TaskNo() string {
	return c.taskNo
}

func (c *LoadConfiguration) Locations() *TaskLocations {
	return c.locations
}

// TempLocation is this task's scratch directory.
func (c *LoadConfiguration) TempLocation() string {
	if c.locations == nil {
		return ""
	}
	loc, _ := c.locations.TempLocation(c.tableIdentifier.DatabaseName, c.tableIdentifier.TableName, c.taskNo)
	return loc
}

func (c *LoadConfiguration) Property(key string) (any, bool) {
	v, ok := c.properties[key]
	return v, ok
}

func (c *LoadConfiguration) ComplexDelimiters() []string {
	v, _ := c.properties[PropertyComplexDelimiters].([]string)
	return append([]string(nil), v...)
}

func (c *LoadConfiguration) SerializationNullFormat() string {
	v, _ := c.properties[PropertySerializationNullFormat].(string)
	return v
}

func (c *LoadConfiguration) FactTimeStamp() int64 {
	v, _ := c.properties[PropertyFactTimeStamp].(int64)
	return v
}

func (c *LoadConfiguration) BadRecordsLoggerEnabled() bool {
	v, _ := c.properties[PropertyBadRecordsLoggerEnable].(bool)
	return v
}

func (c *LoadConfiguration) BadRecordsAction() BadRecordAction {
	v, ok := c.properties[PropertyBadRecordsLoggerAction].(BadRecordAction)
	if !ok {
		return BadRecordFail
	}
	return v
}

func (c *LoadConfiguration) FactFilePath() string {
	v, _ := c.properties[PropertyFactFilePath].(string)
	return v
}
