package http_server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/loader"
	"github.com/danthegoodman1/icedb/pipeline"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/rs/zerolog"
)

type (
	LoadReqBody struct {
		Database    string `validate:"required"`
		Table       string `validate:"required"`
		TaskNo      string
		PartitionID string
		SegmentID   string
		// CSVHeader overrides the header line of CSV
		CSVHeader string
		Delimiter string
		// FORCE, REDIRECT, IGNORE or FAIL
		BadRecordsAction string
		DateFormat       string

		// Delimited text, the first line is the header unless CSVHeader is set
		CSV *string
		// Line-delimited JSON (NDJSON)
		RowsString *string
		// Array of JSON
		Rows []*map[string]any
	}

	LoadStats struct {
		PartID       string
		Key          string
		NumRows      int64
		BadRecords   int64
		BytesWritten int64
		TimeMS       int64
	}
)

var (
	ErrNotFlatMap = errors.New("not a flat map")
	ErrNoRows     = errors.New("no rows found")
)

func (s *HTTPServer) LoadHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	var reqBody LoadReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	defer c.Request().Body.Close()

	if reqBody.TaskNo == "" {
		reqBody.TaskNo = utils.GenKSortedID("")
	}
	model, err := s.Loader.NewModel(ctx, reqBody.Database, reqBody.Table, reqBody.TaskNo)
	if err != nil {
		return c.loaderError(err, "error preparing load model")
	}
	applyRequest(model, reqBody)

	task := loader.Task{Model: model}
	switch {
	case reqBody.CSV != nil:
		// goes through a file so a missing header is read like any fact file's
		f, err := os.CreateTemp("", "icedb-load-*.csv")
		if err != nil {
			return c.InternalError(err, "error creating temp file")
		}
		defer func() {
			if err := os.Remove(f.Name()); err != nil {
				logger.Warn().Err(err).Str("file", f.Name()).Msg("error removing temp file")
			}
		}()
		if _, err = f.WriteString(*reqBody.CSV); err != nil {
			f.Close()
			return c.InternalError(err, "error writing temp file")
		}
		if err = f.Close(); err != nil {
			return c.InternalError(err, "error closing temp file")
		}
		model.FactFilesToProcess = []string{f.Name()}
	case reqBody.RowsString != nil || reqBody.Rows != nil:
		rows, err := jsonRows(reqBody)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		fields, err := s.Loader.Fields(ctx, reqBody.Database, reqBody.Table)
		if err != nil {
			return c.loaderError(err, "error getting fields")
		}
		records, names := recordsFromJSON(rows, fields, model)
		model.CSVHeader = strings.Join(names, ",")
		task.Inputs = []pipeline.RowIterator{pipeline.NewSliceRowIterator(records)}
	default:
		return c.String(http.StatusBadRequest, ErrNoRows.Error())
	}

	start := time.Now()
	res, err := s.Loader.LoadTask(ctx, task)
	if err != nil {
		return c.loaderError(err, "error loading")
	}

	return c.JSON(http.StatusAccepted, LoadStats{
		PartID:       res.Part.ID,
		Key:          res.Part.Key,
		NumRows:      res.Rows,
		BadRecords:   res.BadRecords,
		BytesWritten: res.Part.Bytes,
		TimeMS:       time.Since(start).Milliseconds(),
	})
}

func applyRequest(model *load_config.LoadModel, reqBody LoadReqBody) {
	if reqBody.PartitionID != "" {
		model.PartitionID = reqBody.PartitionID
	}
	if reqBody.SegmentID != "" {
		model.SegmentID = reqBody.SegmentID
	}
	if reqBody.Delimiter != "" {
		model.CSVDelimiter = reqBody.Delimiter
	}
	if reqBody.BadRecordsAction != "" {
		model.BadRecordsAction = "bad_records_action," + reqBody.BadRecordsAction
	}
	model.CSVHeader = reqBody.CSVHeader
	model.DateFormat = reqBody.DateFormat
}

// jsonRows flattens every row so nested objects address columns by dotted path.
func jsonRows(reqBody LoadReqBody) ([]map[string]any, error) {
	var raw []map[string]any
	if reqBody.RowsString != nil {
		ndJSONScanner := bufio.NewScanner(strings.NewReader(*reqBody.RowsString))
		for ndJSONScanner.Scan() {
			line := strings.TrimSpace(ndJSONScanner.Text())
			if line == "" {
				continue
			}
			var row any
			if err := json.Unmarshal([]byte(line), &row); err != nil {
				return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
			}
			jsonMap, ok := row.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line was not a JSON object: %s", line)
			}
			raw = append(raw, jsonMap)
		}
		if err := ndJSONScanner.Err(); err != nil {
			return nil, fmt.Errorf("error scanning rows: %w", err)
		}
	} else {
		for _, row := range reqBody.Rows {
			if row != nil {
				raw = append(raw, *row)
			}
		}
	}
	if len(raw) == 0 {
		return nil, ErrNoRows
	}

	rows := make([]map[string]any, 0, len(raw))
	for _, jsonMap := range raw {
		flat, err := gojsonutils.Flatten(jsonMap, nil)
		if err != nil {
			return nil, fmt.Errorf("error flattening JSON map: %w", err)
		}
		flatMap, ok := flat.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("got %T: %w", flat, ErrNotFlatMap)
		}
		rows = append(rows, flatMap)
	}
	return rows, nil
}

// recordsFromJSON lays rows out in field order, rendering values the way they
// would appear in a CSV file.
func recordsFromJSON(rows []map[string]any, fields []load_config.DataField, model *load_config.LoadModel) ([][]string, []string) {
	nullFormat := `\N`
	if pair, err := load_config.DecodeLegacyPair("serialization_null_format", model.SerializationNullFormat); err == nil {
		nullFormat = pair.Value
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		lower := make(map[string]any, len(row))
		for k, v := range row {
			lower[strings.ToLower(k)] = v
		}
		rec := make([]string, len(names))
		for i, name := range names {
			v, ok := row[name]
			if !ok {
				v, ok = lower[strings.ToLower(name)]
			}
			if !ok || v == nil {
				rec[i] = nullFormat
				continue
			}
			rec[i] = renderValue(v, model.ComplexDelimiterLevel1)
		}
		records = append(records, rec)
	}
	return records, names
}

func renderValue(v any, listDelimiter string) string {
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	case []any:
		parts := make([]string, len(tv))
		for i, item := range tv {
			parts[i] = renderValue(item, listDelimiter)
		}
		return strings.Join(parts, listDelimiter)
	default:
		b, err := json.Marshal(tv)
		if err != nil {
			return fmt.Sprint(tv)
		}
		return string(b)
	}
}
