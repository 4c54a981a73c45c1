package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/danthegoodman1/icedb/datastore"
	"github.com/danthegoodman1/icedb/gologger"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metastore"
	"github.com/danthegoodman1/icedb/metrics"
	"github.com/danthegoodman1/icedb/part"
	"github.com/danthegoodman1/icedb/pipeline"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type (
	// Loader runs load tasks: assemble the configuration, run the pipeline,
	// register the written part.
	Loader struct {
		MetaStore metastore.MetaStore
		DataStore datastore.DataStore
		Locations *load_config.TaskLocations
		Assembler *load_config.Assembler

		// TempStorePath holds one scratch directory per running task
		TempStorePath string
		BatchSize     int
		// Parallelism bounds concurrent tasks in LoadTasks
		Parallelism int
	}

	Task struct {
		Model *load_config.LoadModel
		// Inputs overrides reading Model.FactFilesToProcess
		Inputs []pipeline.RowIterator
	}

	TaskResult struct {
		Part       part.Part
		Marks      []part.ColumnMark
		Rows       int64
		BadRecords int64
		Duration   time.Duration
	}
)

var ErrNoModel = errors.New("task has no load model")

func NewLoader(ms metastore.MetaStore, ds datastore.DataStore) (*Loader, error) {
	if ms == nil || ds == nil {
		return nil, utils.PermError("loader needs a metastore and a datastore")
	}
	locations := load_config.NewTaskLocations()
	assembler := load_config.NewAssembler(locations)
	assembler.Match.CaseSensitive = utils.HEADER_CASE_SENSITIVE
	assembler.Match.FoldAccents = utils.HEADER_FOLD_ACCENTS
	return &Loader{
		MetaStore:     ms,
		DataStore:     ds,
		Locations:     locations,
		Assembler:     assembler,
		TempStorePath: utils.TEMP_STORE_PATH,
		BatchSize:     int(utils.BATCH_SIZE),
		Parallelism:   int(utils.LOAD_PARALLELISM),
	}, nil
}

// NewModel prepares a load model for a table known to the metastore.
func (l *Loader) NewModel(ctx context.Context, database, table, taskNo string) (*load_config.LoadModel, error) {
	td, err := l.MetaStore.GetTableDescriptor(ctx, database, table)
	if err != nil {
		return nil, fmt.Errorf("error in GetTableDescriptor: %w", err)
	}
	return load_config.NewLoadModel(td, taskNo), nil
}

// LoadTask runs one task to completion and registers its part. Nothing is
// registered when the task produced no rows.
func (l *Loader) LoadTask(ctx context.Context, task Task) (TaskResult, error) {
	s := time.Now()
	res, err := l.loadTask(ctx, task)
	res.Duration = time.Since(s)
	metrics.LoadTaskDuration.Observe(res.Duration.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LoadTasksTotal.WithLabelValues(status).Inc()
	return res, err
}

func (l *Loader) loadTask(ctx context.Context, task Task) (TaskResult, error) {
	model := task.Model
	if model == nil {
		return TaskResult{}, ErrNoModel
	}
	ctx = gologger.WithTask(ctx, model.DatabaseName, model.TableName, model.TaskNo, model.SegmentID)
	logger := zerolog.Ctx(ctx)

	storeLocation := filepath.Join(l.TempStorePath, load_config.TempLocationKey(model.DatabaseName, model.TableName, model.TaskNo))
	defer func() {
		l.Locations.Forget(model.DatabaseName, model.TableName, model.TaskNo)
		if err := os.RemoveAll(storeLocation); err != nil {
			logger.Warn().Err(err).Str("storeLocation", storeLocation).Msg("error removing temp store location")
		}
	}()

	cfg, err := l.Assembler.Assemble(ctx, model, storeLocation)
	if err != nil {
		closeInputs(task.Inputs)
		return TaskResult{}, fmt.Errorf("error in Assemble: %w", err)
	}

	inputs := task.Inputs
	if inputs == nil {
		delimiter := model.CSVDelimiter
		if delimiter == "" {
			delimiter = ","
		}
		// files carry their own header line when none was given
		inputs, err = pipeline.OpenCSVFiles(model.FactFilesToProcess, delimiter, model.CSVHeader == "")
		if err != nil {
			return TaskResult{}, fmt.Errorf("error in OpenCSVFiles: %w", err)
		}
	}

	w, err := pipeline.Build(cfg, inputs,
		pipeline.WithDataStore(l.DataStore),
		pipeline.WithBatchSize(l.BatchSize),
	)
	if err != nil {
		return TaskResult{}, fmt.Errorf("error in pipeline.Build: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing pipeline")
		}
	}()
	logger.Debug().Strs("chain", pipeline.Chain(w)).Msg("built pipeline")

	rows, err := pipeline.Drain(ctx, w)
	if err != nil {
		return TaskResult{}, fmt.Errorf("error in pipeline.Drain: %w", err)
	}

	p, marks := w.Result()
	res := TaskResult{Part: p, Marks: marks, Rows: rows, BadRecords: pipeline.BadRecordCount(w)}
	if p.RowCount == 0 {
		logger.Info().Msg("no rows loaded")
		return res, nil
	}

	err = l.MetaStore.CreatePart(ctx, p, marks)
	if err != nil {
		return res, fmt.Errorf("error in MetaStore.CreatePart: %w", err)
	}
	logger.Info().Str("partID", p.ID).Int64("rows", rows).Int64("badRecords", res.BadRecords).Msg("loaded part")
	return res, nil
}

// LoadTasks runs tasks concurrently, at most Parallelism at a time. The first
// failure cancels the rest. Results are in task order.
func (l *Loader) LoadTasks(ctx context.Context, tasks []Task) ([]TaskResult, error) {
	results := make([]TaskResult, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	if l.Parallelism > 0 {
		g.SetLimit(l.Parallelism)
	}
	for i := range tasks {
		g.Go(func() error {
			res, err := l.LoadTask(ctx, tasks[i])
			if err != nil {
				return fmt.Errorf("task %s: %w", taskName(tasks[i]), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func closeInputs(inputs []pipeline.RowIterator) {
	for _, it := range inputs {
		if c, ok := it.(io.Closer); ok {
			c.Close()
		}
	}
}

func taskName(t Task) string {
	if t.Model == nil {
		return "<nil>"
	}
	return load_config.TempLocationKey(t.Model.DatabaseName, t.Model.TableName, t.Model.TaskNo)
}

func (l *Loader) Shutdown(ctx context.Context) error {
	var errs []error
	if err := l.MetaStore.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error in MetaStore.Shutdown: %w", err))
	}
	if err := l.DataStore.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error in DataStore.Shutdown: %w", err))
	}
	return errors.Join(errs...)
}
