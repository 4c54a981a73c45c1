package pipeline

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metrics"
	"github.com/danthegoodman1/icedb/table"
)

// SorterStage buffers everything upstream produces, orders it by the sort key
// (the leading non-complex dimension fields) and re-emits it in batches.
// Rows with equal keys keep their input order.
type SorterStage struct {
	cfg       *load_config.LoadConfiguration
	upstream  Stage
	keyLen    int
	batchSize int

	sorted []table.Row
	pos    int
	loaded bool
}

func NewSorterStage(cfg *load_config.LoadConfiguration, upstream Stage, batchSize int) (*SorterStage, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if upstream == nil {
		return nil, ErrNilUpstream
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SorterStage{
		cfg:       cfg,
		upstream:  upstream,
		keyLen:    cfg.SortKeyLength(),
		batchSize: batchSize,
	}, nil
}

func (s *SorterStage) Name() string {
	return SorterStageName
}

func (s *SorterStage) Upstream() Stage {
	return s.upstream
}

func (s *SorterStage) Next(ctx context.Context) (*table.Batch, error) {
	if !s.loaded {
		if err := s.load(ctx); err != nil {
			return nil, err
		}
	}
	if s.pos >= len(s.sorted) {
		return nil, io.EOF
	}
	end := s.pos + s.batchSize
	if end > len(s.sorted) {
		end = len(s.sorted)
	}
	batch := &table.Batch{Rows: s.sorted[s.pos:end]}
	s.pos = end
	metrics.StageRowsTotal.WithLabelValues(SorterStageName).Add(float64(batch.Len()))
	return batch, nil
}

func (s *SorterStage) load(ctx context.Context) error {
	for {
		b, err := s.upstream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		s.sorted = append(s.sorted, b.Rows...)
	}
	sort.SliceStable(s.sorted, func(i, j int) bool {
		return CompareKeys(s.sorted[i].Vals, s.sorted[j].Vals, s.keyLen) < 0
	})
	s.loaded = true
	return nil
}

// CompareKeys compares the first n values of a and b.
func CompareKeys(a, b []any, n int) int {
	for i := 0; i < n; i++ {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders nils first. Values of different types compare equal.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch av := a.(type) {
	case int32:
		if bv, ok := b.(int32); ok {
			return compareOrdered(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return compareOrdered(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return compareOrdered(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return 0
}

func compareOrdered[T int32 | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (s *SorterStage) Close() error {
	s.sorted = nil
	return s.upstream.Close()
}
