package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type (
	RedisMetaStore struct {
		client *redis.Client
	}
)

func NewRedisMetaStore(ctx context.Context) (*RedisMetaStore, error) {
	return NewRedisMetaStoreFromOptions(ctx, &redis.Options{
		Addr:        utils.REDIS_ADDR,
		Password:    utils.REDIS_PASSWORD,
		DB:          0,
		DialTimeout: time.Second * 3,
	}, utils.GetEnvOrDefault("REDIS_PING_TEST", "0") == "1")
}

func NewRedisMetaStoreFromOptions(ctx context.Context, opts *redis.Options, pingTest bool) (*RedisMetaStore, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("connecting to redis metastore")
	rms := &RedisMetaStore{
		client: redis.NewClient(opts),
	}

	// Ping test first to ensure valid connection
	if pingTest {
		logger.Debug().Msg("running redis ping test")
		s := time.Now()
		_, err := rms.client.Ping(ctx).Result()
		if err != nil {
			rms.client.Close()
			return nil, fmt.Errorf("error pinging redis: %w", err)
		}
		logger.Debug().Msgf("redis ping test successful in %s", time.Since(s))
	}

	return rms, nil
}

func (rms *RedisMetaStore) TableKey(database, table string) string {
	return "t_" + tableKey(database, table)
}

func (rms *RedisMetaStore) GetTableDescriptor(ctx context.Context, database, table string) (*schema.TableDescriptor, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("getting table descriptor")
	raw, err := rms.client.Get(ctx, rms.TableKey(database, table)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", tableKey(database, table), ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error in redis GET: %w", err)
	}

	rec := tableRecord{}
	err = json.Unmarshal([]byte(raw), &rec)
	if err != nil {
		return nil, fmt.Errorf("error in json.Unmarshall: %w", err)
	}

	return rec.Descriptor, nil
}

func (rms *RedisMetaStore) PutTableDescriptor(ctx context.Context, td *schema.TableDescriptor) (*schema.TableDescriptor, error) {
	if err := validateDescriptor(td); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("creating table descriptor")
	stored := *td
	if stored.Identifier.TableID == "" {
		stored.Identifier.TableID = utils.GenRandomShortID()
	}
	rec := tableRecord{
		Descriptor: &stored,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	jsonBytes, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("error in json.Marshal: %w", err)
	}

	set, err := rms.client.SetNX(ctx, rms.TableKey(td.Identifier.DatabaseName, td.Identifier.TableName), string(jsonBytes), 0).Result()
	if err != nil {
		return nil, fmt.Errorf("error in redis SETNX: %w", err)
	}
	if !set {
		return nil, fmt.Errorf("%s: %w", td.Identifier.String(), ErrTableExists)
	}

	return &stored, nil
}

func (rms *RedisMetaStore) ListParts(ctx context.Context, database, table string, filters ...FilterOption) ([]part.Part, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msgf("listing parts with filter options %+v", filters)

	var cursorPos uint64 = 0
	var returnedCursor uint64 = 1
	parts := make([]part.Part, 0)

	// Loop until we have all the results
	for returnedCursor != 0 {
		logger.Debug().Msgf("running redis HSCAN with cursor %d", cursorPos)
		rawParts, newCursor, err := rms.client.HScan(ctx, rms.TableKey(database, table)+"_parts", cursorPos, "", 0).Result()
		if err != nil {
			return nil, fmt.Errorf("error in redis HSCAN: %w", err)
		}

		// HSCAN replies alternate field and value
		for i := 0; i+1 < len(rawParts); i += 2 {
			partID, rawJSON := rawParts[i], rawParts[i+1]
			p := part.Part{}
			err = json.Unmarshal([]byte(rawJSON), &p)
			if err != nil {
				return nil, fmt.Errorf("error unmarshalling part ID '%s' under table '%s': %w", partID, table, err)
			}
			if passAll(p, filters) {
				parts = append(parts, p)
			}
		}

		returnedCursor = newCursor
		cursorPos = newCursor
	}

	return parts, nil
}

func (rms *RedisMetaStore) CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error {
	pipe := rms.client.TxPipeline()
	tk := rms.TableKey(p.Database, p.Table)

	partJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("error json.Marshal(part): %w", err)
	}

	// Insert part
	pipe.HSet(ctx, tk+"_parts", p.ID, string(partJSON))

	if len(colMarks) > 0 {
		// Build a single HSet of all column marks
		colMarksHash := make([]any, 0, len(colMarks)*2)
		for _, colMark := range colMarks {
			jsonBytes, err := json.Marshal(colMark)
			if err != nil {
				return fmt.Errorf("error in json.Marshal(colMark): %w", err)
			}
			colMarksHash = append(colMarksHash, colMark.ColumnName, string(jsonBytes))
		}
		pipe.HSet(ctx, tk+"_part_"+p.ID, colMarksHash...)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("error in redis pipeline exec: %w", err)
	}

	return nil
}

func (rms *RedisMetaStore) Shutdown(_ context.Context) error {
	err := rms.client.Close()
	if err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
