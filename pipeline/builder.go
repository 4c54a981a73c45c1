package pipeline

import (
	"fmt"

	"github.com/danthegoodman1/icedb/datastore"
	"github.com/danthegoodman1/icedb/load_config"
)

const DefaultBatchSize = 1000

type (
	buildOptions struct {
		batchSize   int
		dataStore   datastore.DataStore
		parallelism int64
	}

	Option func(*buildOptions)
)

func WithBatchSize(n int) Option {
	return func(o *buildOptions) {
		o.batchSize = n
	}
}

func WithDataStore(ds datastore.DataStore) Option {
	return func(o *buildOptions) {
		o.dataStore = ds
	}
}

// WithParallelism sets the parquet writer's encoding parallelism.
func WithParallelism(np int64) Option {
	return func(o *buildOptions) {
		o.parallelism = np
	}
}

// Build wires Input -> Converter -> Sorter -> Writer around cfg and returns
// the Writer. Without WithDataStore parts go to a disk store rooted at the
// global store path. A failing constructor aborts the build and closes the
// inputs; no partial pipeline is returned.
func Build(cfg *load_config.LoadConfiguration, inputs []RowIterator, opts ...Option) (*WriterStage, error) {
	o := buildOptions{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}

	w, err := build(cfg, inputs, o)
	if err != nil {
		closeIterators(inputs)
		return nil, err
	}
	return w, nil
}

func build(cfg *load_config.LoadConfiguration, inputs []RowIterator, o buildOptions) (*WriterStage, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	ds := o.dataStore
	if ds == nil {
		storePath := cfg.TableIdentifier().StorePath
		if loc := cfg.Locations(); loc != nil && loc.StorePath() != "" {
			storePath = loc.StorePath()
		}
		if storePath == "" {
			return nil, ErrNoDataStore
		}
		var err error
		ds, err = datastore.NewDiskDataStore(storePath)
		if err != nil {
			return nil, fmt.Errorf("error in NewDiskDataStore: %w", err)
		}
	}

	// 1. reads the raw input iterators and lays records out in field order
	input, err := NewInputStage(cfg, inputs, o.batchSize)
	if err != nil {
		return nil, fmt.Errorf("error in NewInputStage: %w", err)
	}
	// 2. dictionary, complex and typed conversion
	converter, err := NewConverterStage(cfg, input)
	if err != nil {
		return nil, fmt.Errorf("error in NewConverterStage: %w", err)
	}
	// 3. sorts by the non-complex dimensions
	sorter, err := NewSorterStage(cfg, converter, o.batchSize)
	if err != nil {
		return nil, fmt.Errorf("error in NewSorterStage: %w", err)
	}
	// 4. writes the sorted rows as a parquet part
	w, err := NewWriterStage(cfg, sorter, ds, o.parallelism)
	if err != nil {
		return nil, fmt.Errorf("error in NewWriterStage: %w", err)
	}
	return w, nil
}
