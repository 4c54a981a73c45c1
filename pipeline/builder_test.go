package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danthegoodman1/icedb/datastore"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

const salesHeader = "region,address,day,qty,sales"

func TestBuildChainOrder(t *testing.T) {
	cfg := assemble(t, t.TempDir(), salesHeader, nil)
	w, err := Build(cfg, []RowIterator{NewSliceRowIterator(nil)})
	require.NoError(t, err)
	require.Equal(t, []string{WriterStageName, SorterStageName, ConverterStageName, InputStageName}, Chain(w))
	require.NoError(t, w.Close())
}

func TestBuildFailsWithoutPartialPipeline(t *testing.T) {
	cfg := assemble(t, t.TempDir(), salesHeader, nil)

	w, err := Build(cfg, nil)
	require.Nil(t, w)
	require.True(t, errors.Is(err, ErrNoInputs))

	w, err = Build(cfg, []RowIterator{NewSliceRowIterator(nil), nil})
	require.Nil(t, w)
	require.True(t, errors.Is(err, ErrNilIterator))

	w, err = Build(nil, []RowIterator{NewSliceRowIterator(nil)})
	require.Nil(t, w)
	require.True(t, errors.Is(err, ErrNilConfig))
}

func TestBuildNeedsSomewhereToWrite(t *testing.T) {
	cfg := assemble(t, "", salesHeader, nil)
	_, err := Build(cfg, []RowIterator{NewSliceRowIterator(nil)})
	require.True(t, errors.Is(err, ErrNoDataStore))

	ds, err := datastore.NewDiskDataStore(t.TempDir())
	require.NoError(t, err)
	_, err = Build(cfg, []RowIterator{NewSliceRowIterator(nil)}, WithDataStore(ds))
	require.NoError(t, err)
}

func TestPipelineEndToEnd(t *testing.T) {
	store := t.TempDir()
	cfg := assemble(t, store, "sales,qty,day,address,region", nil)

	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.csv")
	f2 := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(f1, []byte(strings.Join([]string{
		"sales,qty,day,address,region",
		"10.5,1,2024-01-02,x$y,eu",
		`2,2,2024-01-03,z,"us"`,
	}, "\n")), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte(strings.Join([]string{
		"sales,qty,day,address,region",
		`\N,3,2024-01-04,,eu`,
		"4,4,,q,apac",
	}, "\n")), 0o644))

	its, err := OpenCSVFiles([]string{f1, f2}, ",", true)
	require.NoError(t, err)

	w, err := Build(cfg, its, WithBatchSize(2))
	require.NoError(t, err)
	defer w.Close()

	rows, err := Drain(context.Background(), w)
	require.NoError(t, err)
	require.Equal(t, int64(4), rows)

	p, marks := w.Result()
	require.Equal(t, int64(4), p.RowCount)
	require.True(t, p.Alive)
	require.NotZero(t, p.Checksum)
	require.Equal(t, []string{"region", "day", "qty", "address", "sales"}, p.Columns)
	require.True(t, strings.HasPrefix(p.Key, "default/sales/Fact/Part1/Segment_2/part-3-"))
	// eu=2, us=3, apac=4 by first appearance
	require.Equal(t, []string{"2", "2024-01-02T00:00:00Z", "1"}, p.MinSortKey)
	require.Equal(t, []string{"4", "", "4"}, p.MaxSortKey)
	require.Len(t, marks, 5)
	require.Equal(t, int64(3), marks[0].DictionarySize)
	require.Equal(t, int64(1), marks[1].NullCount)
	require.Equal(t, int64(1), marks[4].NullCount)

	fr, err := local.NewLocalFileReader(filepath.Join(store, filepath.FromSlash(p.Key)))
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, w.SchemaString(), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.Equal(t, int64(4), pr.GetNumRows())

	// drained writer stays drained
	rows, err = Drain(context.Background(), w)
	require.NoError(t, err)
	require.Zero(t, rows)
}

func TestPipelineEmptyInput(t *testing.T) {
	cfg := assemble(t, t.TempDir(), salesHeader, nil)
	w, err := Build(cfg, []RowIterator{NewSliceRowIterator(nil)})
	require.NoError(t, err)
	rows, err := Drain(context.Background(), w)
	require.NoError(t, err)
	require.Zero(t, rows)
	p, _ := w.Result()
	require.Zero(t, p.RowCount)
	require.Empty(t, p.Key)
}

func TestPipelineFailsOnBadRecord(t *testing.T) {
	cfg := assemble(t, t.TempDir(), salesHeader, func(m *load_config.LoadModel) {
		m.BadRecordsAction = "bad_records_action,fail"
	})
	w, err := Build(cfg, []RowIterator{NewSliceRowIterator([][]string{{"eu", "a", "2024-01-01", "notanint", "1"}})})
	require.NoError(t, err)
	_, err = Drain(context.Background(), w)
	var bad *BadRecordError
	require.True(t, errors.As(err, &bad))
	require.Equal(t, "qty", bad.Field)
}

func TestPipelineCountsDictionaryNulls(t *testing.T) {
	cfg := assemble(t, t.TempDir(), salesHeader, nil)
	w, err := Build(cfg, []RowIterator{NewSliceRowIterator([][]string{
		{"eu", "a", "2024-01-01", "1", "1"},
		{`\N`, "b", "2024-01-02", "2", "2"},
	})})
	require.NoError(t, err)
	defer w.Close()

	_, err = Drain(context.Background(), w)
	require.NoError(t, err)
	_, marks := w.Result()
	require.Equal(t, "region", marks[0].ColumnName)
	require.Equal(t, int64(1), marks[0].NullCount)
	require.Equal(t, int64(1), marks[0].DictionarySize)
	require.Zero(t, marks[2].NullCount)
}

func TestPipelineFailsOnShortRecord(t *testing.T) {
	cfg := assemble(t, t.TempDir(), salesHeader, func(m *load_config.LoadModel) {
		m.BadRecordsAction = "bad_records_action,fail"
	})
	w, err := Build(cfg, []RowIterator{NewSliceRowIterator([][]string{
		{"eu", "a", "2024-01-01", "1", "1"},
		{"us", "b"},
	})})
	require.NoError(t, err)
	defer w.Close()

	_, err = Drain(context.Background(), w)
	var bad *BadRecordError
	require.True(t, errors.As(err, &bad))
	require.Equal(t, int64(2), bad.RowNum)
	require.ErrorIs(t, err, ErrFieldCount)
}
