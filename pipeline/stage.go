// Package pipeline assembles and runs the four load stages. Each stage pulls
// batches from the one before it:
//
//	Input -> Converter -> Sorter -> Writer
//
// The caller pulls from the Writer until io.EOF.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danthegoodman1/icedb/table"
)

type (
	// Stage produces batches on demand. Next returns io.EOF once drained.
	// Close releases the stage and the upstream stages it owns.
	Stage interface {
		Name() string
		Next(ctx context.Context) (*table.Batch, error)
		Close() error
	}

	// upstreamer is implemented by every stage but Input.
	upstreamer interface {
		Upstream() Stage
	}
)

const (
	InputStageName     = "input"
	ConverterStageName = "converter"
	SorterStageName    = "sorter"
	WriterStageName    = "writer"
)

var (
	ErrNoInputs    = errors.New("no input iterators")
	ErrNilIterator = errors.New("nil input iterator")
	ErrNilUpstream = errors.New("nil upstream stage")
	ErrNilConfig   = errors.New("nil load configuration")
	ErrNoDataStore = errors.New("no datastore and no store path to default to")
	ErrFieldCount  = errors.New("field count does not match the header")
)

// Chain lists stage names from s back to the head of the chain.
func Chain(s Stage) []string {
	var names []string
	for s != nil {
		names = append(names, s.Name())
		u, ok := s.(upstreamer)
		if !ok {
			break
		}
		s = u.Upstream()
	}
	return names
}

// Drain pulls from s until io.EOF and returns the number of rows it emitted.
func Drain(ctx context.Context, s Stage) (int64, error) {
	var rows int64
	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		b, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("error in %s stage: %w", s.Name(), err)
		}
		rows += int64(b.Len())
	}
}

// BadRecordCount is the number of rows the chain ending at s failed to convert.
func BadRecordCount(s Stage) int64 {
	for s != nil {
		if c, ok := s.(*ConverterStage); ok {
			return c.BadRecords()
		}
		u, ok := s.(upstreamer)
		if !ok {
			break
		}
		s = u.Upstream()
	}
	return 0
}
