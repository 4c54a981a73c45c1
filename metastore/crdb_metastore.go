package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/icedb/crdb"
	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

const pgUniqueViolation = "23505"

type CRDBMetaStore struct {
	pool *pgxpool.Pool
}

func NewCRDBMetaStore(ctx context.Context, dsn string) (*CRDBMetaStore, error) {
	pool, err := crdb.ConnectToDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error in crdb.ConnectToDB: %w", err)
	}
	return &CRDBMetaStore{pool: pool}, nil
}

func (cms *CRDBMetaStore) GetTableDescriptor(ctx context.Context, database, table string) (*schema.TableDescriptor, error) {
	var raw []byte
	err := utils.ReliableExec(ctx, cms.pool, crdb.StandardContextTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT descriptor
			FROM tables
			WHERE database_name = $1 AND table_name = $2
		`, database, table).Scan(&raw)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", tableKey(database, table), ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}

	td := &schema.TableDescriptor{}
	if err = json.Unmarshal(raw, td); err != nil {
		return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	return td, nil
}

func (cms *CRDBMetaStore) PutTableDescriptor(ctx context.Context, td *schema.TableDescriptor) (*schema.TableDescriptor, error) {
	if err := validateDescriptor(td); err != nil {
		return nil, err
	}
	stored := *td
	if stored.Identifier.TableID == "" {
		stored.Identifier.TableID = utils.GenRandomShortID()
	}
	raw, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("error in json.Marshal: %w", err)
	}

	err = utils.ReliableExecInTx(ctx, cms.pool, crdb.StandardContextTimeout, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tables (database_name, table_name, table_id, descriptor)
			VALUES ($1, $2, $3, $4::JSONB)
		`, stored.Identifier.DatabaseName, stored.Identifier.TableName, stored.Identifier.TableID, string(raw))
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return utils.PermError(ErrTableExists.Error())
		}
		return err
	})
	var perm utils.PermError
	if errors.As(err, &perm) {
		return nil, fmt.Errorf("%s: %w", stored.Identifier.String(), ErrTableExists)
	}
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExecInTx: %w", err)
	}
	return &stored, nil
}

func (cms *CRDBMetaStore) CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("error json.Marshal(part): %w", err)
	}
	s := time.Now()
	err = utils.ReliableExecInTx(ctx, cms.pool, crdb.StandardContextTimeout, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO parts (database_name, table_name, id, partition_id, segment_id, task_no, alive, row_count, bytes, part, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::JSONB, $11)
		`, p.Database, p.Table, p.ID, p.PartitionID, p.SegmentID, p.TaskNo, p.Alive, p.RowCount, p.Bytes, string(raw), p.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting part: %w", err)
		}
		if len(colMarks) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, m := range colMarks {
			batch.Queue(`
				INSERT INTO column_marks (part_id, column_name, null_count, dictionary_size)
				VALUES ($1, $2, $3, $4)
			`, m.PartID, m.ColumnName, m.NullCount, m.DictionarySize)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("error in ReliableExecInTx: %w", err)
	}
	logger.Debug().Str("partID", p.ID).Int("marks", len(colMarks)).Msgf("registered part in %s", time.Since(s))
	return nil
}

func (cms *CRDBMetaStore) ListParts(ctx context.Context, database, table string, filters ...FilterOption) ([]part.Part, error) {
	zerolog.Ctx(ctx).Debug().Msgf("listing parts with filter options %+v", filters)
	parts := make([]part.Part, 0)
	err := utils.ReliableExec(ctx, cms.pool, crdb.StandardContextTimeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		parts = parts[:0]
		rows, err := conn.Query(ctx, `
			SELECT part
			FROM parts
			WHERE database_name = $1 AND table_name = $2 AND alive
			ORDER BY id
		`, database, table)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			p := part.Part{}
			if err := json.Unmarshal(raw, &p); err != nil {
				return utils.PermError(fmt.Sprintf("error unmarshalling part under table '%s': %s", table, err))
			}
			if passAll(p, filters) {
				parts = append(parts, p)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error in ReliableExec: %w", err)
	}
	return parts, nil
}

func (cms *CRDBMetaStore) Shutdown(context.Context) error {
	cms.pool.Close()
	return nil
}
