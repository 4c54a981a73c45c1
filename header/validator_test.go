package header

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danthegoodman1/icedb/schema"
	"github.com/stretchr/testify/require"
)

var (
	dims = []schema.ColumnDescriptor{
		{Name: "region", Type: schema.String},
		{Name: "address", Type: schema.Array, IsComplex: true},
	}
	measures = []schema.ColumnDescriptor{{Name: "sales", Type: schema.Double}}
)

func TestValidateExplicit(t *testing.T) {
	opts := DefaultMatchOptions()
	require.NoError(t, Validate(Explicit("region,address,sales"), dims, measures, opts))
	require.NoError(t, Validate(Explicit(" Region , ADDRESS,sales"), dims, measures, opts))
	require.NoError(t, Validate(Explicit(`"region","address","sales"`), dims, measures, opts))
	// order does not matter unless strict
	require.NoError(t, Validate(Explicit("sales,region,address"), dims, measures, opts))
}

func TestValidateMissingColumn(t *testing.T) {
	err := Validate(Explicit("region,sales"), dims, measures, DefaultMatchOptions())
	var hm *HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Equal(t, HeaderFromDDL, hm.Source)
	require.Equal(t, []string{"address"}, hm.Missing)
	require.Contains(t, err.Error(), "CSV header provided in DDL is not proper")
	require.Contains(t, err.Error(), "missing columns: address")
}

func TestValidateUnexpectedAndDuplicate(t *testing.T) {
	err := Validate(Explicit("region,address,sales,extra"), dims, measures, DefaultMatchOptions())
	var hm *HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Equal(t, []string{"extra"}, hm.Unexpected)

	err = Validate(Explicit("region,region,sales"), dims, measures, DefaultMatchOptions())
	require.True(t, errors.As(err, &hm))
	require.Equal(t, []string{"region"}, hm.Duplicate)
	require.Equal(t, []string{"address"}, hm.Missing)
}

func TestValidateWrongDelimiter(t *testing.T) {
	h := Header{Raw: "region|address|sales", Delimiter: ",", Source: HeaderFromDDL}
	err := Validate(h, dims, measures, DefaultMatchOptions())
	var hm *HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Equal(t, 1, hm.ActualCount)
	require.Equal(t, 3, hm.ExpectedCount)
}

func TestValidateOptions(t *testing.T) {
	err := Validate(Explicit("Region,address,sales"), dims, measures, MatchOptions{CaseSensitive: true, TrimSpace: true})
	require.Error(t, err)

	err = Validate(Explicit("sales,region,address"), dims, measures, MatchOptions{TrimSpace: true, StrictOrder: true})
	var hm *HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Len(t, hm.Misplaced, 3)

	accented := []schema.ColumnDescriptor{{Name: "mesto"}}
	require.Error(t, Validate(Explicit("Město"), accented, nil, DefaultMatchOptions()))
	require.NoError(t, Validate(Explicit("Město"), accented, nil, MatchOptions{TrimSpace: true, FoldAccents: true}))
}

func TestValidateDummyMeasure(t *testing.T) {
	onlyDummy := []schema.ColumnDescriptor{{Name: schema.DummyMeasureName, Type: schema.Double}}
	require.NoError(t, Validate(Explicit("region,address"), dims, onlyDummy, DefaultMatchOptions()))
	require.Error(t, Validate(Explicit("region,address,default_dummy_measure"), dims, onlyDummy, DefaultMatchOptions()))
}

func TestValidateSniffedFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sales_2024.csv")
	require.NoError(t, os.WriteFile(p, []byte("\uFEFFregion;sales\r\neu;1.0\n"), 0o644))

	h, err := FromFile(p, ";")
	require.NoError(t, err)
	require.Equal(t, "region;sales", h.Raw)
	require.Equal(t, HeaderFromFile, h.Source)

	err = Validate(h, dims, measures, DefaultMatchOptions())
	var hm *HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.True(t, strings.HasPrefix(err.Error(), "CSV File provided is not proper"))
	require.Contains(t, err.Error(), "CSVFile Name : sales_2024.csv")
	require.Equal(t, []string{"address"}, hm.Missing)
}

func TestSniffEmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	_, err := SniffFileHeader(p)
	require.ErrorIs(t, err, ErrEmptyHeader)

	_, err = SniffFileHeader(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestIndexOf(t *testing.T) {
	idx := IndexOf(Explicit("sales,REGION,address"), schema.ExpectedColumns(dims, measures), DefaultMatchOptions())
	require.Equal(t, map[string]int{"region": 1, "address": 2, "sales": 0}, idx)
}

func TestValidateTrimSpaceOption(t *testing.T) {
	region := []schema.ColumnDescriptor{{Name: "region", Type: schema.String}}

	err := Validate(Explicit(" region "), region, nil, MatchOptions{CaseSensitive: true})
	var hm *HeaderMismatchError
	require.True(t, errors.As(err, &hm))
	require.Equal(t, []string{"region"}, hm.Missing)

	require.NoError(t, Validate(Explicit(" region "), region, nil, MatchOptions{CaseSensitive: true, TrimSpace: true}))
	require.NoError(t, Validate(Explicit(` "region" `), region, nil, MatchOptions{TrimSpace: true}))
}

func TestGetColumnFieldsKeepsPadding(t *testing.T) {
	require.Equal(t, []string{" region ", "a b", ` x`}, GetColumnFields(` "region" ,"a b", x`, ","))
}
