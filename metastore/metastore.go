package metastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/icedb/gologger"
	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/utils"
)

var (
	logger = gologger.NewLogger()

	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
)

type (
	MetaStore interface {
		// GetTableDescriptor fetches the descriptor of database.table
		GetTableDescriptor(ctx context.Context, database, table string) (*schema.TableDescriptor, error)
		// PutTableDescriptor stores a new descriptor, assigning its table id.
		// Returns ErrTableExists if the table is already known.
		PutTableDescriptor(ctx context.Context, td *schema.TableDescriptor) (*schema.TableDescriptor, error)

		// CreatePart registers a written part and its column marks
		CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error
		// ListParts lists the alive parts of a table that pass every filter
		ListParts(ctx context.Context, database, table string, filters ...FilterOption) ([]part.Part, error)

		Shutdown(ctx context.Context) error
	}

	FilterField string
	Operator    string

	FilterOption struct {
		Field    FilterField
		Operator Operator
		// Val is a string, or a []string for IN
		Val any
	}

	tableRecord struct {
		Descriptor *schema.TableDescriptor
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

const (
	FieldPartID      FilterField = "id"
	FieldPartitionID FilterField = "partition_id"
	FieldSegmentID   FilterField = "segment_id"
	FieldTaskNo      FilterField = "task_no"

	GT  Operator = ">"
	GTE Operator = ">="
	IN  Operator = "IN"
	LT  Operator = "<"
	LTE Operator = "<="
	EQ  Operator = "="
)

func tableKey(database, table string) string {
	return database + "." + table
}

func (f FilterOption) value(p part.Part) string {
	switch f.Field {
	case FieldPartitionID:
		return p.PartitionID
	case FieldSegmentID:
		return p.SegmentID
	case FieldTaskNo:
		return p.TaskNo
	default:
		return p.ID
	}
}

// Pass reports whether p satisfies the filter. A malformed filter never passes.
func (f FilterOption) Pass(p part.Part) bool {
	val := f.value(p)
	if f.Operator == IN {
		vals, ok := f.Val.([]string)
		return ok && utils.ContainsString(vals, val)
	}
	s, ok := f.Val.(string)
	if !ok {
		return false
	}
	switch f.Operator {
	case GT:
		return val > s
	case GTE:
		return val >= s
	case LT:
		return val < s
	case LTE:
		return val <= s
	case EQ:
		return val == s
	default:
		return false
	}
}

func passAll(p part.Part, filters []FilterOption) bool {
	if !p.Alive {
		return false
	}
	for _, filter := range filters {
		if !filter.Pass(p) {
			return false
		}
	}
	return true
}

func validateDescriptor(td *schema.TableDescriptor) error {
	if td == nil {
		return utils.PermError("nil table descriptor")
	}
	if err := td.Validate(); err != nil {
		return fmt.Errorf("error in TableDescriptor.Validate: %w", err)
	}
	return nil
}
