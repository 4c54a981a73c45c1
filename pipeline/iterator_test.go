package pipeline

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRowIterator(t *testing.T) {
	it, err := NewCSVRowIterator(strings.NewReader("a|b\n1|\"x|y\"\n2\n"), "|", true)
	require.NoError(t, err)

	rec, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, []string{"1", "x|y"}, rec)

	rec, err = it.Next()
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, rec)

	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, it.Close())
}

func TestCSVRowIteratorRejectsBadDelimiter(t *testing.T) {
	_, err := NewCSVRowIterator(strings.NewReader(""), "ab", false)
	require.Error(t, err)
	_, err = NewCSVRowIterator(strings.NewReader(""), `"`, false)
	require.Error(t, err)
}

func TestOpenCSVFilesMissing(t *testing.T) {
	_, err := OpenCSVFiles([]string{"/does/not/exist.csv"}, ",", false)
	require.Error(t, err)
}

func TestInputStageProjectsFields(t *testing.T) {
	cfg := assemble(t, t.TempDir(), "sales,qty,day,address,region", nil)
	in, err := NewInputStage(cfg, []RowIterator{
		NewSliceRowIterator([][]string{{"1", "2", "d", "a", "r"}}),
		NewSliceRowIterator([][]string{{"9", "8"}, {"1", "2", "d", "a", "r", "extra"}}),
	}, 10)
	require.NoError(t, err)

	rows := drainBatches(t, in)
	require.Len(t, rows, 3)
	require.Equal(t, []any{"r", "d", "2", "a", "1"}, rows[0].Vals)
	require.NoError(t, rows[0].Err)
	require.Equal(t, []any{nil, nil, "8", nil, "9"}, rows[1].Vals)
	require.Equal(t, int64(2), rows[1].Num)
	require.ErrorIs(t, rows[1].Err, ErrFieldCount)
	require.Equal(t, []any{"r", "d", "2", "a", "1"}, rows[2].Vals)
	require.ErrorIs(t, rows[2].Err, ErrFieldCount)
}
