package loader

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metastore"
	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/schema"
)

// CreateTable registers a new table descriptor
func (l *Loader) CreateTable(ctx context.Context, td *schema.TableDescriptor) (*schema.TableDescriptor, error) {
	stored, err := l.MetaStore.PutTableDescriptor(ctx, td)
	if err != nil {
		return nil, fmt.Errorf("error in MetaStore.PutTableDescriptor: %w", err)
	}
	return stored, nil
}

// Fields is the order loaded values take in the table's part files.
func (l *Loader) Fields(ctx context.Context, database, table string) ([]load_config.DataField, error) {
	td, err := l.MetaStore.GetTableDescriptor(ctx, database, table)
	if err != nil {
		return nil, fmt.Errorf("error in GetTableDescriptor: %w", err)
	}
	return load_config.FieldOrder(td)
}

func (l *Loader) Parts(ctx context.Context, database, table, partitionID string) ([]part.Part, error) {
	var filters []metastore.FilterOption
	if partitionID != "" {
		filters = append(filters, metastore.FilterOption{Field: metastore.FieldPartitionID, Operator: metastore.EQ, Val: partitionID})
	}
	parts, err := l.MetaStore.ListParts(ctx, database, table, filters...)
	if err != nil {
		return nil, fmt.Errorf("error in MetaStore.ListParts: %w", err)
	}
	return parts, nil
}
