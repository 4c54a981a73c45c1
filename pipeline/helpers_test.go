package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/table"
	"github.com/stretchr/testify/require"
)

// sliceStage is a head stage serving fixed batches.
type sliceStage struct {
	batches []*table.Batch
	closed  bool
}

func (s *sliceStage) Name() string { return "slice" }

func (s *sliceStage) Next(context.Context) (*table.Batch, error) {
	if len(s.batches) == 0 {
		return nil, io.EOF
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func (s *sliceStage) Close() error {
	s.closed = true
	return nil
}

func rawBatch(rows ...[]any) *table.Batch {
	b := table.NewBatch(len(rows))
	for i, r := range rows {
		b.Append(table.Row{Num: int64(i + 1), Vals: r})
	}
	return b
}

func salesTable(storePath string) *schema.TableDescriptor {
	return schema.NewTableDescriptor(
		schema.TableIdentifier{DatabaseName: "default", TableName: "sales", StorePath: storePath},
		[]schema.ColumnDescriptor{
			{Name: "region", Type: schema.String, IsDictionary: true},
			{Name: "address", Type: schema.Array, IsComplex: true},
			{Name: "day", Type: schema.Date},
			{Name: "qty", Type: schema.Int},
		},
		[]schema.ColumnDescriptor{{Name: "sales", Type: schema.Double}},
	)
}

// assemble builds a config with the given csv header; fields come out as
// region, day, qty, address, sales.
func assemble(t *testing.T, storePath, csvHeader string, mutate func(m *load_config.LoadModel)) *load_config.LoadConfiguration {
	t.Helper()
	model := load_config.NewLoadModel(salesTable(storePath), "3")
	model.CSVHeader = csvHeader
	model.PartitionID = "1"
	model.SegmentID = "2"
	model.FactTimeStamp = 1700000000000
	if mutate != nil {
		mutate(model)
	}
	cfg, err := load_config.NewAssembler(load_config.NewTaskLocations()).Assemble(context.Background(), model, t.TempDir())
	require.NoError(t, err)
	return cfg
}

func drainBatches(t *testing.T, s Stage) []table.Row {
	t.Helper()
	var rows []table.Row
	for {
		b, err := s.Next(context.Background())
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, b.Rows...)
	}
}
