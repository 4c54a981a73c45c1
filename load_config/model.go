package load_config

import (
	"github.com/danthegoodman1/icedb/schema"
)

type (
	// LoadModel describes one load task as handed over by the caller. Several
	// string properties use the legacy "name,value" encoding, see DecodeLegacyPair.
	LoadModel struct {
		DatabaseName string `json:"database_name" validate:"required"`
		TableName    string `json:"table_name" validate:"required"`
		TaskNo       string `json:"task_no" validate:"required"`
		PartitionID  string `json:"partition_id"`
		SegmentID    string `json:"segment_id"`
		// StorePath is the global store location the written parts end up under
		StorePath string `json:"store_path"`

		Schema *schema.TableDescriptor `json:"schema" validate:"required"`

		// CSVHeader is the explicit header from the load DDL, always comma separated
		CSVHeader          string   `json:"csv_header"`
		CSVDelimiter       string   `json:"csv_delimiter"`
		FactFilesToProcess []string `json:"fact_files_to_process"`
		FactFilePath       string   `json:"fact_file_path"`

		ComplexDelimiterLevel1 string `json:"complex_delimiter_level_1"`
		ComplexDelimiterLevel2 string `json:"complex_delimiter_level_2"`

		// legacy "name,value" pairs
		SerializationNullFormat string `json:"serialization_null_format"`
		BadRecordsLoggerEnable  string `json:"bad_records_logger_enable"`
		BadRecordsAction        string `json:"bad_records_action"`

		// FactTimeStamp in unix ms, the assembler's clock is used when zero
		FactTimeStamp int64 `json:"fact_time_stamp"`
		// DateFormat is "col:pattern,col2:pattern2"
		DateFormat string `json:"date_format"`
	}
)

// NewLoadModel returns a model with the usual defaults filled in.
func NewLoadModel(td *schema.TableDescriptor, taskNo string) *LoadModel {
	return &LoadModel{
		DatabaseName:            td.Identifier.DatabaseName,
		TableName:               td.Identifier.TableName,
		TaskNo:                  taskNo,
		PartitionID:             "0",
		SegmentID:               "0",
		StorePath:               td.Identifier.StorePath,
		Schema:                  td,
		CSVDelimiter:            ",",
		ComplexDelimiterLevel1:  "$",
		ComplexDelimiterLevel2:  ":",
		SerializationNullFormat: "serialization_null_format,\\N",
		BadRecordsLoggerEnable:  "bad_records_logger_enable,false",
		BadRecordsAction:        "bad_records_action,force",
	}
}
