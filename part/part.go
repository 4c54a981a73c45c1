package part

import "time"

type (
	// Part is one columnar file written by a load task.
	Part struct {
		ID          string
		Database    string
		Table       string
		PartitionID string
		SegmentID   string
		TaskNo      string
		// Key is the datastore key of the file
		Key       string
		Alive     bool
		CreatedAt time.Time
		RowCount  int64
		Bytes     int64
		// Checksum is the xxh3 hash of the file contents
		Checksum      uint64
		FactTimeStamp int64
		// Columns in field order
		Columns []string
		// MinSortKey and MaxSortKey are the sort key values of the first and last row
		MinSortKey []string
		MaxSortKey []string
	}

	ColumnMark struct {
		PartID     string
		ColumnName string
		NullCount  int64
		// DictionarySize is the number of distinct surrogates, 0 for plain columns
		DictionarySize int64
	}
)
