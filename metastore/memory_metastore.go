package metastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/rs/zerolog"
)

// MemoryMetaStore keeps everything in process, for tests and the CLI.
type MemoryMetaStore struct {
	mu     sync.RWMutex
	tables map[string]tableRecord
	parts  map[string][]part.Part
	marks  map[string][]part.ColumnMark
}

func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{
		tables: make(map[string]tableRecord),
		parts:  make(map[string][]part.Part),
		marks:  make(map[string][]part.ColumnMark),
	}
}

func (mms *MemoryMetaStore) GetTableDescriptor(ctx context.Context, database, table string) (*schema.TableDescriptor, error) {
	zerolog.Ctx(ctx).Debug().Str("db", database).Str("table", table).Msg("getting table descriptor")
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	rec, ok := mms.tables[tableKey(database, table)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", tableKey(database, table), ErrTableNotFound)
	}
	return rec.Descriptor, nil
}

func (mms *MemoryMetaStore) PutTableDescriptor(ctx context.Context, td *schema.TableDescriptor) (*schema.TableDescriptor, error) {
	if err := validateDescriptor(td); err != nil {
		return nil, err
	}
	key := tableKey(td.Identifier.DatabaseName, td.Identifier.TableName)
	zerolog.Ctx(ctx).Debug().Str("table", key).Msg("creating table descriptor")

	mms.mu.Lock()
	defer mms.mu.Unlock()
	if _, exists := mms.tables[key]; exists {
		return nil, fmt.Errorf("%s: %w", key, ErrTableExists)
	}
	stored := *td
	if stored.Identifier.TableID == "" {
		stored.Identifier.TableID = utils.GenRandomShortID()
	}
	mms.tables[key] = tableRecord{Descriptor: &stored, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	return &stored, nil
}

func (mms *MemoryMetaStore) CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error {
	key := tableKey(p.Database, p.Table)
	mms.mu.Lock()
	defer mms.mu.Unlock()
	mms.parts[key] = append(mms.parts[key], p)
	mms.marks[p.ID] = append([]part.ColumnMark(nil), colMarks...)
	return nil
}

// ListParts returns matching parts ordered by id, which is creation order.
func (mms *MemoryMetaStore) ListParts(ctx context.Context, database, table string, filters ...FilterOption) ([]part.Part, error) {
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	parts := make([]part.Part, 0)
	for _, p := range mms.parts[tableKey(database, table)] {
		if passAll(p, filters) {
			parts = append(parts, p)
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].ID < parts[j].ID
	})
	return parts, nil
}

// ColumnMarks returns the marks registered with a part.
func (mms *MemoryMetaStore) ColumnMarks(partID string) []part.ColumnMark {
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	return mms.marks[partID]
}

func (mms *MemoryMetaStore) Shutdown(context.Context) error {
	return nil
}
