package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/danthegoodman1/icedb/dateformat"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metrics"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/danthegoodman1/icedb/table"
	"github.com/rs/zerolog"
)

type (
	// ConverterStage turns raw strings into typed values: dictionary surrogates
	// for dictionary dimensions, split lists for complex columns, and parsed
	// numbers and times for the rest. Rows that fail are handled according to
	// the configured bad record action.
	ConverterStage struct {
		cfg          *load_config.LoadConfiguration
		upstream     Stage
		fields       []load_config.DataField
		dictionaries []*Dictionary
		nullFormat   string
		delimiter    string
		action       load_config.BadRecordAction
		logBad       bool

		badRecords int64
		redirected []table.Row
	}

	BadRecordError struct {
		RowNum int64
		Field  string
		Value  string
		Err    error
	}
)

var ErrBadValue = errors.New("bad value")

func (e *BadRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("bad record at row %d: %s", e.RowNum, e.Err)
	}
	return fmt.Sprintf("bad record at row %d, field %s=%q: %s", e.RowNum, e.Field, e.Value, e.Err)
}

func (e *BadRecordError) Unwrap() error {
	return e.Err
}

func NewConverterStage(cfg *load_config.LoadConfiguration, upstream Stage) (*ConverterStage, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if upstream == nil {
		return nil, ErrNilUpstream
	}
	fields := cfg.DataFields()
	dicts := make([]*Dictionary, len(fields))
	for i, f := range fields {
		if isDictionaryField(f) {
			dicts[i] = NewDictionary()
		}
	}
	var delimiter string
	if delims := cfg.ComplexDelimiters(); len(delims) > 0 {
		delimiter = delims[0]
	}
	return &ConverterStage{
		cfg:          cfg,
		upstream:     upstream,
		fields:       fields,
		dictionaries: dicts,
		nullFormat:   cfg.SerializationNullFormat(),
		delimiter:    delimiter,
		action:       cfg.BadRecordsAction(),
		logBad:       cfg.BadRecordsLoggerEnabled(),
	}, nil
}

func (s *ConverterStage) Name() string {
	return ConverterStageName
}

func (s *ConverterStage) Upstream() Stage {
	return s.upstream
}

// Next returns the next non-empty converted batch. Upstream errors, io.EOF
// included, are passed through.
func (s *ConverterStage) Next(ctx context.Context) (*table.Batch, error) {
	for {
		in, err := s.upstream.Next(ctx)
		if err != nil {
			return nil, err
		}
		out := table.NewBatch(in.Len())
		for _, row := range in.Rows {
			converted, keep, err := s.convertRow(ctx, row)
			if err != nil {
				return nil, err
			}
			if keep {
				out.Append(converted)
			}
		}
		if out.Len() > 0 {
			metrics.StageRowsTotal.WithLabelValues(ConverterStageName).Add(float64(out.Len()))
			return out, nil
		}
	}
}

func (s *ConverterStage) convertRow(ctx context.Context, row table.Row) (table.Row, bool, error) {
	// FORCE keeps a malformed record, the fields it lacks are null
	if row.Err != nil {
		bad := &BadRecordError{RowNum: row.Num, Err: row.Err}
		if keep, err := s.badRecord(ctx, row, bad); !keep {
			return table.Row{}, false, err
		}
	}

	vals := make([]any, len(s.fields))
	for i, f := range s.fields {
		v, err := s.convertValue(i, f, row.Vals[i])
		if err == nil {
			vals[i] = v
			continue
		}

		raw, _ := row.Vals[i].(string)
		bad := &BadRecordError{RowNum: row.Num, Field: f.Name(), Value: raw, Err: err}
		if keep, err := s.badRecord(ctx, row, bad); !keep {
			return table.Row{}, false, err
		}
		vals[i] = s.nullValue(i)
	}
	return table.Row{Num: row.Num, Vals: vals}, true, nil
}

// badRecord applies the bad records action. keep is only true for FORCE; err
// is only set for FAIL.
func (s *ConverterStage) badRecord(ctx context.Context, row table.Row, bad *BadRecordError) (keep bool, err error) {
	s.badRecords++
	metrics.BadRecordsTotal.WithLabelValues(string(s.action)).Inc()
	if s.logBad {
		zerolog.Ctx(ctx).Warn().Err(bad).Str("action", string(s.action)).Msg("bad record")
	}
	switch s.action {
	case load_config.BadRecordForce:
		return true, nil
	case load_config.BadRecordRedirect:
		s.redirected = append(s.redirected, row)
		return false, nil
	case load_config.BadRecordIgnore:
		return false, nil
	default:
		return false, bad
	}
}

func (s *ConverterStage) nullValue(i int) any {
	if s.dictionaries[i] != nil {
		return NullSurrogate
	}
	return nil
}

func (s *ConverterStage) convertValue(i int, f load_config.DataField, raw any) (any, error) {
	str, ok := raw.(string)
	if !ok || str == s.nullFormat {
		return s.nullValue(i), nil
	}

	if f.Column.IsComplex {
		if str == "" {
			return nil, nil
		}
		if s.delimiter == "" {
			return []string{str}, nil
		}
		return strings.Split(str, s.delimiter), nil
	}

	var v any
	trimmed := strings.TrimSpace(str)
	switch f.Column.Type {
	case schema.Int:
		if trimmed == "" {
			return s.nullValue(i), nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadValue, err)
		}
		v = n
	case schema.Double:
		if trimmed == "" {
			return s.nullValue(i), nil
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadValue, err)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%w: %s is not finite", ErrBadValue, trimmed)
		}
		v = n
	case schema.Date, schema.Timestamp:
		if trimmed == "" {
			return s.nullValue(i), nil
		}
		pattern := f.DateFormat
		if pattern == "" {
			pattern = dateformat.DefaultTimestampFormat
			if f.Column.Type == schema.Date {
				pattern = dateformat.DefaultDateFormat
			}
		}
		t, err := dateformat.Parse(trimmed, pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadValue, err)
		}
		v = t
	default:
		v = str
	}

	if dict := s.dictionaries[i]; dict != nil {
		return dict.Surrogate(dictionaryKey(v)), nil
	}
	return v, nil
}

// dictionaryKey renders a converted value canonically, so spellings of the
// same value share a surrogate.
func dictionaryKey(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// BadRecords counts rows that failed conversion so far.
func (s *ConverterStage) BadRecords() int64 {
	return s.badRecords
}

// Redirected returns the raw rows dropped under the REDIRECT action.
func (s *ConverterStage) Redirected() []table.Row {
	return s.redirected
}

// DictionarySize is the number of distinct members of field i, 0 if it is
// not dictionary encoded.
func (s *ConverterStage) DictionarySize(i int) int {
	if i < 0 || i >= len(s.dictionaries) || s.dictionaries[i] == nil {
		return 0
	}
	return s.dictionaries[i].Size()
}

func (s *ConverterStage) Close() error {
	return s.upstream.Close()
}
