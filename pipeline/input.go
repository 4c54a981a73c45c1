package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danthegoodman1/icedb/header"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metrics"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/table"
)

// InputStage reads raw records from its iterators, one after the other, and
// lays their values out in field order. Values stay raw strings. A record whose
// field count differs from the header is flagged with ErrFieldCount, its
// missing fields are nil.
type InputStage struct {
	cfg       *load_config.LoadConfiguration
	inputs    []RowIterator
	current   int
	batchSize int
	// positions[i] is the record index holding field i
	positions []int
	// width is the number of header columns
	width  int
	rowNum int64
}

func NewInputStage(cfg *load_config.LoadConfiguration, inputs []RowIterator, batchSize int) (*InputStage, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	for i, it := range inputs {
		if it == nil {
			return nil, fmt.Errorf("iterator %d: %w", i, ErrNilIterator)
		}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	fields := cfg.DataFields()
	cols := make([]schema.ColumnDescriptor, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	index := header.IndexOf(cfg.Header(), cols, cfg.MatchOptions())
	positions := make([]int, len(fields))
	for i, f := range fields {
		pos, ok := index[f.Name()]
		if !ok {
			return nil, fmt.Errorf("field %q is not in the header", f.Name())
		}
		positions[i] = pos
	}

	return &InputStage{
		cfg:       cfg,
		inputs:    inputs,
		batchSize: batchSize,
		positions: positions,
		width:     len(header.GetColumnFields(cfg.Header().Raw, cfg.Header().Delimiter)),
	}, nil
}

func (s *InputStage) Name() string {
	return InputStageName
}

func (s *InputStage) Next(ctx context.Context) (*table.Batch, error) {
	batch := table.NewBatch(s.batchSize)
	for batch.Len() < s.batchSize && s.current < len(s.inputs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.inputs[s.current].Next()
		if errors.Is(err, io.EOF) {
			s.current++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error reading input %d: %w", s.current, err)
		}
		s.rowNum++
		row := table.Row{Num: s.rowNum, Vals: s.project(rec)}
		if len(rec) != s.width {
			row.Err = fmt.Errorf("%w: got %d fields, header has %d", ErrFieldCount, len(rec), s.width)
		}
		batch.Append(row)
	}
	if batch.Len() == 0 {
		return nil, io.EOF
	}
	metrics.StageRowsTotal.WithLabelValues(InputStageName).Add(float64(batch.Len()))
	return batch, nil
}

func (s *InputStage) project(rec []string) []any {
	vals := make([]any, len(s.positions))
	for i, pos := range s.positions {
		if pos < len(rec) {
			vals[i] = rec[pos]
		}
	}
	return vals
}

func (s *InputStage) Close() error {
	return closeIterators(s.inputs)
}
