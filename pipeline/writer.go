package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/danthegoodman1/icedb/datastore"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metrics"
	"github.com/danthegoodman1/icedb/parquet_accumulator"
	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/table"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/zeebo/xxh3"
)

type (
	// WriterStage writes the sorted rows into one parquet part file and stores
	// it once upstream is drained. Every Next hands the written batch back to
	// the caller; the final one returns io.EOF after the part is stored.
	WriterStage struct {
		cfg         *load_config.LoadConfiguration
		upstream    Stage
		ds          datastore.DataStore
		parallelism int64

		fields      []load_config.DataField
		schemaStr   string
		accumulator parquet_accumulator.ParquetSchemaAccumulator
		buf         bytes.Buffer
		pw          *writer.JSONWriter
		nullCounts  []int64
		rows        int64
		firstKey    []string
		lastKey     []string
		done        bool

		result part.Part
		marks  []part.ColumnMark
	}

	dictionarySizer interface {
		DictionarySize(i int) int
	}
)

func NewWriterStage(cfg *load_config.LoadConfiguration, upstream Stage, ds datastore.DataStore, parallelism int64) (*WriterStage, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if upstream == nil {
		return nil, ErrNilUpstream
	}
	if ds == nil {
		return nil, ErrNoDataStore
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	fields := cfg.DataFields()
	acc := parquet_accumulator.FromDataFields(fields)
	schemaStr, err := acc.GetSchemaString()
	if err != nil {
		return nil, fmt.Errorf("error in GetSchemaString: %w", err)
	}
	return &WriterStage{
		cfg:         cfg,
		upstream:    upstream,
		ds:          ds,
		parallelism: parallelism,
		fields:      fields,
		schemaStr:   schemaStr,
		accumulator: acc,
		nullCounts:  make([]int64, len(fields)),
	}, nil
}

func (s *WriterStage) Name() string {
	return WriterStageName
}

func (s *WriterStage) Upstream() Stage {
	return s.upstream
}

// SchemaString is the parquet-go JSON schema of the part file.
func (s *WriterStage) SchemaString() string {
	return s.schemaStr
}

func (s *WriterStage) Next(ctx context.Context) (*table.Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	b, err := s.upstream.Next(ctx)
	if errors.Is(err, io.EOF) {
		if err := s.commit(ctx); err != nil {
			return nil, err
		}
		s.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	if s.pw == nil {
		s.pw, err = writer.NewJSONWriterFromWriter(s.schemaStr, &s.buf, s.parallelism)
		if err != nil {
			return nil, fmt.Errorf("error in NewJSONWriterFromWriter: %w", err)
		}
		s.pw.CompressionType = parquet.CompressionCodec_SNAPPY
	}

	keyLen := s.cfg.SortKeyLength()
	for _, row := range b.Rows {
		m := make(map[string]any, len(s.fields))
		for i, f := range s.fields {
			if isNull(f, row.Vals[i]) {
				s.nullCounts[i]++
			}
			m[f.Name()] = parquet_accumulator.RowValue(f, row.Vals[i])
		}
		rowBytes, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("error in json.Marshal of row %d: %w", row.Num, err)
		}
		if err = s.pw.Write(string(rowBytes)); err != nil {
			return nil, fmt.Errorf("error in pw.Write for row %d: %w", row.Num, err)
		}
		if s.rows == 0 {
			s.firstKey = sortKeyStrings(row.Vals, keyLen)
		}
		s.lastKey = sortKeyStrings(row.Vals, keyLen)
		s.rows++
	}
	metrics.StageRowsTotal.WithLabelValues(WriterStageName).Add(float64(b.Len()))
	return b, nil
}

func (s *WriterStage) commit(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	id := s.cfg.TableIdentifier()
	s.result = part.Part{
		ID:            utils.GenKSortedID(""),
		Database:      id.DatabaseName,
		Table:         id.TableName,
		PartitionID:   s.cfg.PartitionID(),
		SegmentID:     s.cfg.SegmentID(),
		TaskNo:        s.cfg.TaskNo(),
		CreatedAt:     time.Now(),
		FactTimeStamp: s.cfg.FactTimeStamp(),
		Columns:       s.accumulator.GetColumnNames(),
	}
	if s.pw == nil {
		logger.Debug().Msg("no rows to write, skipping part file")
		return nil
	}

	if err := s.pw.WriteStop(); err != nil {
		return fmt.Errorf("error in pw.WriteStop: %w", err)
	}
	s.pw = nil

	b := s.buf.Bytes()
	s.result.Key = PartKey(s.cfg, s.result.ID)
	s.result.Alive = true
	s.result.RowCount = s.rows
	s.result.Bytes = int64(len(b))
	s.result.Checksum = xxh3.Hash(b)
	s.result.MinSortKey = s.firstKey
	s.result.MaxSortKey = s.lastKey

	if err := s.ds.WritePartFile(ctx, s.result.Key, b); err != nil {
		return fmt.Errorf("error in WritePartFile: %w", err)
	}

	var sizer dictionarySizer
	for st := s.upstream; st != nil; {
		if d, ok := st.(dictionarySizer); ok {
			sizer = d
			break
		}
		u, ok := st.(upstreamer)
		if !ok {
			break
		}
		st = u.Upstream()
	}
	s.marks = make([]part.ColumnMark, len(s.fields))
	for i, f := range s.fields {
		s.marks[i] = part.ColumnMark{
			PartID:     s.result.ID,
			ColumnName: f.Name(),
			NullCount:  s.nullCounts[i],
		}
		if sizer != nil {
			s.marks[i].DictionarySize = int64(sizer.DictionarySize(i))
		}
	}

	metrics.PartsWrittenTotal.Inc()
	metrics.PartBytes.Observe(float64(len(b)))
	logger.Debug().Str("key", s.result.Key).Int64("rows", s.rows).Int("bytes", len(b)).Msg("wrote part file")
	s.buf.Reset()
	return nil
}

// Result is the written part, valid once Next has returned io.EOF. RowCount
// is 0 and Key empty when there was nothing to write.
func (s *WriterStage) Result() (part.Part, []part.ColumnMark) {
	return s.result, s.marks
}

// PartKey is {db}/{table}/Fact/Part{partition}/Segment_{segment}/part-{task}-{id}.parquet
func PartKey(cfg *load_config.LoadConfiguration, id string) string {
	ti := cfg.TableIdentifier()
	return path.Join(
		ti.DatabaseName,
		ti.TableName,
		"Fact",
		"Part"+cfg.PartitionID(),
		"Segment_"+cfg.SegmentID(),
		fmt.Sprintf("part-%s-%s.parquet", cfg.TaskNo(), id),
	)
}

// isNull also treats the null surrogate of a dictionary field as null.
func isNull(f load_config.DataField, v any) bool {
	if v == nil {
		return true
	}
	if isDictionaryField(f) {
		k, ok := v.(int32)
		return ok && k == NullSurrogate
	}
	return false
}

func sortKeyStrings(vals []any, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if vals[i] == nil {
			continue
		}
		if t, ok := vals[i].(time.Time); ok {
			out[i] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[i] = fmt.Sprint(vals[i])
	}
	return out
}

func (s *WriterStage) Close() error {
	if s.pw != nil {
		// unfinished write, release the writer's goroutines
		_ = s.pw.WriteStop()
		s.pw = nil
	}
	return s.upstream.Close()
}
