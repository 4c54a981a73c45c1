package load_config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danthegoodman1/icedb/header"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func salesTable() *schema.TableDescriptor {
	return schema.NewTableDescriptor(
		schema.TableIdentifier{DatabaseName: "default", TableName: "sales", StorePath: "/store"},
		[]schema.ColumnDescriptor{
			{Name: "region", Type: schema.String, IsDictionary: true},
			{Name: "address", Type: schema.Array, IsComplex: true},
		},
		[]schema.ColumnDescriptor{{Name: "sales", Type: schema.Double}},
	)
}

func fieldNames(cfg *LoadConfiguration) []string {
	var names []string
	for _, f := range cfg.DataFields() {
		names = append(names, f.Name())
	}
	return names
}

func newTestAssembler(t *testing.T) (*Assembler, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	a := NewAssembler(NewTaskLocations())
	a.Clock = clock
	return a, clock
}

func TestAssembleOrdersFields(t *testing.T) {
	a, clock := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "7")
	model.CSVHeader = "region,address,sales"
	model.StorePath = "/global/store"
	tmp := filepath.Join(t.TempDir(), "scratch")

	cfg, err := a.Assemble(context.Background(), model, tmp)
	require.NoError(t, err)
	require.Equal(t, []string{"region", "address", "sales"}, fieldNames(cfg))
	require.Equal(t, 1, cfg.SortKeyLength())
	require.True(t, cfg.Field(2).IsMeasure)

	// scratch dir and locations
	st, err := os.Stat(tmp)
	require.NoError(t, err)
	require.True(t, st.IsDir())
	loc, ok := a.Locations.TempLocation("default", "sales", "7")
	require.True(t, ok)
	require.Equal(t, tmp, loc)
	require.Equal(t, tmp, cfg.TempLocation())
	require.Equal(t, "/global/store", a.Locations.StorePath())

	// properties
	require.Equal(t, `\N`, cfg.SerializationNullFormat())
	require.False(t, cfg.BadRecordsLoggerEnabled())
	require.Equal(t, BadRecordForce, cfg.BadRecordsAction())
	require.Equal(t, []string{"$", ":"}, cfg.ComplexDelimiters())
	require.Equal(t, clock.Now().UnixMilli(), cfg.FactTimeStamp())
	require.Equal(t, "7", cfg.TaskNo())
	require.Equal(t, "0", cfg.SegmentID())
	require.Equal(t, header.HeaderFromDDL, cfg.Header().Source)
}

func TestAssembleComplexAfterSimpleDims(t *testing.T) {
	td := schema.NewTableDescriptor(
		schema.TableIdentifier{DatabaseName: "d", TableName: "t"},
		[]schema.ColumnDescriptor{
			{Name: "c1", Type: schema.Struct, IsComplex: true},
			{Name: "d1", Type: schema.String},
			{Name: "c2", Type: schema.Array, IsComplex: true},
			{Name: "d2", Type: schema.Timestamp},
			{Name: "d3", Type: schema.Int},
		},
		[]schema.ColumnDescriptor{
			{Name: "m1", Type: schema.Double},
			{Name: schema.DummyMeasureName, Type: schema.Double},
			{Name: "m2", Type: schema.Double},
		},
	)
	a, _ := newTestAssembler(t)
	model := NewLoadModel(td, "1")
	model.CSVHeader = "m2,c1,d1,c2,d2,d3,m1"
	model.DateFormat = "D2:yyyy/MM/dd HH:mm"

	cfg, err := a.Assemble(context.Background(), model, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, []string{"d1", "d2", "d3", "c1", "c2", "m1", "m2"}, fieldNames(cfg))
	require.Equal(t, 3, cfg.SortKeyLength())
	require.Equal(t, "yyyy/MM/dd HH:mm", cfg.Field(1).DateFormat)
	require.Empty(t, cfg.Field(0).DateFormat)
}

func TestAssembleOnlyDummyMeasure(t *testing.T) {
	td := schema.NewTableDescriptor(
		schema.TableIdentifier{DatabaseName: "d", TableName: "t"},
		[]schema.ColumnDescriptor{{Name: "a", Type: schema.String}},
		[]schema.ColumnDescriptor{{Name: schema.DummyMeasureName, Type: schema.Double}},
	)
	a, _ := newTestAssembler(t)
	model := NewLoadModel(td, "1")
	model.CSVHeader = "a"

	cfg, err := a.Assemble(context.Background(), model, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, fieldNames(cfg))
	for _, f := range cfg.DataFields() {
		require.False(t, f.IsMeasure)
	}
}

func TestAssembleHeaderMismatch(t *testing.T) {
	a, _ := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "1")
	model.CSVHeader = "region,sales"

	cfg, err := a.Assemble(context.Background(), model, t.TempDir())
	require.Nil(t, cfg)
	var hm *header.HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Equal(t, header.HeaderFromDDL, hm.Source)
	require.Contains(t, err.Error(), "address")
}

func TestAssembleSniffedHeader(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(good, []byte("region|address|sales\neu|a$b|1\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("region|sales\neu|1\n"), 0o644))

	a, _ := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "1")
	model.CSVDelimiter = "|"
	model.FactFilesToProcess = []string{good}
	cfg, err := a.Assemble(context.Background(), model, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, header.HeaderFromFile, cfg.Header().Source)
	require.Equal(t, "good.csv", cfg.Header().FileName)

	model.FactFilesToProcess = []string{bad, good}
	_, err = a.Assemble(context.Background(), model, t.TempDir())
	var hm *header.HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Equal(t, header.HeaderFromFile, hm.Source)
	require.True(t, strings.Contains(err.Error(), "CSVFile Name : bad.csv"))
}

func TestAssembleNoHeaderSource(t *testing.T) {
	a, _ := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "1")
	_, err := a.Assemble(context.Background(), model, t.TempDir())
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
}

func TestAssembleSchemaError(t *testing.T) {
	td := salesTable()
	td.FactTableName = "missing"
	a, _ := newTestAssembler(t)
	model := NewLoadModel(td, "1")
	model.CSVHeader = "region,address,sales"
	_, err := a.Assemble(context.Background(), model, t.TempDir())
	var se *schema.SchemaError
	require.True(t, errors.As(err, &se))
}

func TestAssembleMalformedLegacyPairs(t *testing.T) {
	mutators := map[string]func(m *LoadModel){
		"null format":  func(m *LoadModel) { m.SerializationNullFormat = `\N` },
		"logger":       func(m *LoadModel) { m.BadRecordsLoggerEnable = "bad_records_logger_enable,maybe" },
		"action":       func(m *LoadModel) { m.BadRecordsAction = "bad_records_action," },
		"action value": func(m *LoadModel) { m.BadRecordsAction = "bad_records_action,explode" },
		"date format":  func(m *LoadModel) { m.DateFormat = "nocolon" },
		"no task":      func(m *LoadModel) { m.TaskNo = "" },
	}
	for name, mutate := range mutators {
		t.Run(name, func(t *testing.T) {
			a, _ := newTestAssembler(t)
			model := NewLoadModel(salesTable(), "1")
			model.CSVHeader = "region,address,sales"
			mutate(model)
			_, err := a.Assemble(context.Background(), model, t.TempDir())
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
		})
	}
}

func TestAssembleDirectoryFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	a, _ := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "1")
	model.CSVHeader = "region,address,sales"
	model.FactTimeStamp = 42
	cfg, err := a.Assemble(context.Background(), model, filepath.Join(blocker, "sub"))
	require.NoError(t, err)
	require.Equal(t, int64(42), cfg.FactTimeStamp())
}

func TestDecodeLegacyPair(t *testing.T) {
	p, err := DecodeLegacyPair("x", "serialization_null_format,NULL,extra")
	require.NoError(t, err)
	require.Equal(t, "serialization_null_format", p.Name)
	require.Equal(t, "NULL", p.Value)

	_, err = DecodeLegacyPair("x", "onlyname")
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "x", ce.Property)
}

func TestDataFieldsIsACopy(t *testing.T) {
	a, _ := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "1")
	model.CSVHeader = "region,address,sales"
	cfg, err := a.Assemble(context.Background(), model, t.TempDir())
	require.NoError(t, err)
	fields := cfg.DataFields()
	fields[0].Column.Name = "changed"
	require.Equal(t, "region", cfg.Field(0).Name())
}

func TestFieldOrder(t *testing.T) {
	fields, err := FieldOrder(salesTable())
	require.NoError(t, err)
	require.Len(t, fields, 2+1)
	require.Equal(t, "region", fields[0].Name())
	require.Equal(t, "address", fields[1].Name())
	require.True(t, fields[2].IsMeasure)

	_, err = FieldOrder(&schema.TableDescriptor{})
	var se *schema.SchemaError
	require.True(t, errors.As(err, &se))
}

func TestAssembleRejectsMismatchedTaskIdentity(t *testing.T) {
	a, _ := newTestAssembler(t)
	model := NewLoadModel(salesTable(), "1")
	model.CSVHeader = "region,address,sales"
	model.TableName = "SALES"

	_, err := a.Assemble(context.Background(), model, t.TempDir())
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "table_name", ce.Property)

	// nothing registered under either identity
	_, ok := a.Locations.TempLocation("default", "SALES", "1")
	require.False(t, ok)
	_, ok = a.Locations.TempLocation("default", "sales", "1")
	require.False(t, ok)

	model.TableName = "sales"
	tmp := t.TempDir()
	cfg, err := a.Assemble(context.Background(), model, tmp)
	require.NoError(t, err)
	require.Equal(t, tmp, cfg.TempLocation())
}

func TestAssembleRejectsPathLikeTableName(t *testing.T) {
	td := schema.NewTableDescriptor(
		schema.TableIdentifier{DatabaseName: "default", TableName: "../../escaped"},
		[]schema.ColumnDescriptor{{Name: "a", Type: schema.String}},
		[]schema.ColumnDescriptor{{Name: "m", Type: schema.Double}},
	)
	a, _ := newTestAssembler(t)
	model := NewLoadModel(td, "1")
	model.CSVHeader = "a,m"

	_, err := a.Assemble(context.Background(), model, t.TempDir())
	var se *schema.SchemaError
	require.True(t, errors.As(err, &se))
	_, ok := a.Locations.TempLocation("default", "../../escaped", "1")
	require.False(t, ok)
}

func TestAssembleRejectsPathLikeTaskIdentity(t *testing.T) {
	a, _ := newTestAssembler(t)
	for prop, mutate := range map[string]func(m *LoadModel){
		"task_no":      func(m *LoadModel) { m.TaskNo = "../1" },
		"partition_id": func(m *LoadModel) { m.PartitionID = "0/../../x" },
		"segment_id":   func(m *LoadModel) { m.SegmentID = `0\1` },
	} {
		model := NewLoadModel(salesTable(), "1")
		model.CSVHeader = "region,address,sales"
		mutate(model)
		_, err := a.Assemble(context.Background(), model, t.TempDir())
		var ce *ConfigurationError
		require.True(t, errors.As(err, &ce), prop)
		require.Equal(t, prop, ce.Property)
	}
}
