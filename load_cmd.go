package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/loader"
	"github.com/danthegoodman1/icedb/metastore"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

type loadFlags struct {
	db, table        string
	schemaFile       string
	files            []string
	csvHeader        string
	delimiter        string
	store            string
	taskNo           string
	partition        string
	segment          string
	badRecordsAction string
	dateFormat       string
	splitTasks       bool
}

func parseLoadFlags(args []string) (loadFlags, error) {
	var f loadFlags
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.StringVar(&f.db, "db", "default", "database name")
	fs.StringVar(&f.table, "table", "", "table name")
	fs.StringVar(&f.schemaFile, "schema", "", "JSON table descriptor to register before loading")
	fs.StringSliceVar(&f.files, "files", nil, "comma separated fact files")
	fs.StringVar(&f.csvHeader, "header", "", "explicit comma separated header, otherwise read from the first file")
	fs.StringVar(&f.delimiter, "delimiter", ",", "field delimiter of the fact files")
	fs.StringVar(&f.store, "store", utils.STORE_PATH, "store path parts are written under (or set STORE_PATH env var)")
	fs.StringVar(&f.taskNo, "task", "0", "task number, incremented per file with --split-tasks")
	fs.StringVar(&f.partition, "partition", "0", "partition id")
	fs.StringVar(&f.segment, "segment", "0", "segment id")
	fs.StringVar(&f.badRecordsAction, "bad-records-action", "FORCE", "FORCE, REDIRECT, IGNORE or FAIL")
	fs.StringVar(&f.dateFormat, "date-format", "", "per column date patterns, col:pattern,col2:pattern2")
	fs.BoolVar(&f.splitTasks, "split-tasks", false, "run one task per file, LOAD_PARALLELISM at a time")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.table == "" {
		return f, fmt.Errorf("--table is required")
	}
	if len(f.files) == 0 {
		return f, fmt.Errorf("--files is required")
	}
	return f, nil
}

func readDescriptor(path string) (*schema.TableDescriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	td := &schema.TableDescriptor{}
	if err := json.Unmarshal(b, td); err != nil {
		return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
	}
	if td.FactTableName == "" {
		td.FactTableName = td.Identifier.TableName
	}
	return td, nil
}

func runLoad(ctx context.Context, args []string) error {
	f, err := parseLoadFlags(args)
	if err != nil {
		return err
	}
	ms, err := newMetaStore(ctx, utils.METASTORE)
	if err != nil {
		return err
	}
	ds, err := newDataStore(utils.DATASTORE, f.store)
	if err != nil {
		return err
	}
	l, err := loader.NewLoader(ms, ds)
	if err != nil {
		return err
	}
	defer l.Shutdown(ctx)

	results, err := load(ctx, l, f)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, res := range results {
		if err := enc.Encode(res.Part); err != nil {
			return err
		}
	}
	return nil
}

func load(ctx context.Context, l *loader.Loader, f loadFlags) ([]loader.TaskResult, error) {
	logger := zerolog.Ctx(ctx)
	if f.schemaFile != "" {
		td, err := readDescriptor(f.schemaFile)
		if err != nil {
			return nil, err
		}
		_, err = l.CreateTable(ctx, td)
		if errors.Is(err, metastore.ErrTableExists) {
			logger.Info().Str("table", td.Identifier.String()).Msg("table already registered")
		} else if err != nil {
			return nil, err
		}
	}

	fileSets := [][]string{f.files}
	if f.splitTasks {
		fileSets = fileSets[:0]
		for _, file := range f.files {
			fileSets = append(fileSets, []string{file})
		}
	}
	baseTask, err := strconv.Atoi(f.taskNo)
	if err != nil && f.splitTasks {
		return nil, fmt.Errorf("--task must be a number with --split-tasks: %w", err)
	}

	tasks := make([]loader.Task, 0, len(fileSets))
	for i, files := range fileSets {
		taskNo := f.taskNo
		if f.splitTasks {
			taskNo = strconv.Itoa(baseTask + i)
		}
		model, err := l.NewModel(ctx, f.db, f.table, taskNo)
		if err != nil {
			return nil, err
		}
		applyFlags(model, f, files)
		tasks = append(tasks, loader.Task{Model: model})
	}
	return l.LoadTasks(ctx, tasks)
}

func applyFlags(model *load_config.LoadModel, f loadFlags, files []string) {
	model.FactFilesToProcess = files
	model.CSVHeader = f.csvHeader
	model.CSVDelimiter = f.delimiter
	model.StorePath = f.store
	model.PartitionID = f.partition
	model.SegmentID = f.segment
	model.BadRecordsAction = "bad_records_action," + f.badRecordsAction
	model.DateFormat = f.dateFormat
}
