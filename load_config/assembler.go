package load_config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danthegoodman1/icedb/dateformat"
	"github.com/danthegoodman1/icedb/header"
	"github.com/danthegoodman1/icedb/schema"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Assembler turns a LoadModel into a LoadConfiguration.
type Assembler struct {
	Locations *TaskLocations
	Clock     clockwork.Clock
	Match     header.MatchOptions

	validate *validator.Validate
}

func NewAssembler(locations *TaskLocations) *Assembler {
	return &Assembler{
		Locations: locations,
		Clock:     clockwork.NewRealClock(),
		Match:     header.DefaultMatchOptions(),
		validate:  validator.New(),
	}
}

// Assemble validates the model against its table schema and builds the task's
// configuration. storeLocation is the task's scratch directory; failing to
// create it is only logged since it may be left over from an earlier attempt.
//
// Errors are *schema.SchemaError, *header.HeaderMismatchError or
// *ConfigurationError.
func (a *Assembler) Assemble(ctx context.Context, model *LoadModel, storeLocation string) (*LoadConfiguration, error) {
	logger := zerolog.Ctx(ctx)

	if model == nil {
		return nil, &ConfigurationError{Property: "model", Reason: "no load model"}
	}
	if a.validate == nil {
		a.validate = validator.New()
	}
	if err := a.validate.Struct(model); err != nil {
		return nil, &ConfigurationError{Property: "model", Reason: "invalid load model", Err: err}
	}

	if err := model.Schema.Validate(); err != nil {
		return nil, err
	}
	if id := model.Schema.Identifier; id.DatabaseName != model.DatabaseName || id.TableName != model.TableName {
		return nil, &ConfigurationError{
			Property: "table_name",
			Value:    model.DatabaseName + "." + model.TableName,
			Reason:   fmt.Sprintf("does not match the schema's table %s", id.String()),
		}
	}

	// these end up in part keys
	for prop, v := range map[string]string{"task_no": model.TaskNo, "partition_id": model.PartitionID, "segment_id": model.SegmentID} {
		if strings.ContainsAny(v, `/\`) || strings.Contains(v, "..") {
			return nil, &ConfigurationError{Property: prop, Value: v, Reason: "must not contain path separators or \"..\""}
		}
	}

	if err := os.MkdirAll(storeLocation, 0o755); err != nil {
		logger.Error().Err(err).Str("storeLocation", storeLocation).Msg("error while creating the temp store path")
	}

	if a.Locations != nil {
		a.Locations.Register(model.DatabaseName, model.TableName, model.TaskNo, storeLocation, model.StorePath)
	}

	dims, measures, err := schema.Resolve(model.Schema)
	if err != nil {
		return nil, fmt.Errorf("error in schema.Resolve: %w", err)
	}

	h, err := determineHeader(model)
	if err != nil {
		return nil, err
	}
	if err := header.Validate(h, dims, measures, a.Match); err != nil {
		var hm *header.HeaderMismatchError
		if errors.As(err, &hm) {
			logger.Error().Str("headerSource", hm.Source.String()).Str("fileName", hm.FileName).Msg(hm.Error())
		}
		return nil, err
	}

	dateFormats, err := dateformat.ParseSpec(model.DateFormat)
	if err != nil {
		return nil, &ConfigurationError{Property: "date_format", Value: model.DateFormat, Reason: "malformed date format", Err: err}
	}

	props, err := a.buildProperties(model)
	if err != nil {
		return nil, err
	}

	cfg := &LoadConfiguration{
		tableIdentifier: model.Schema.Identifier,
		dataFields:      buildDataFields(dims, measures, dateFormats),
		header:          h,
		match:           a.Match,
		partitionID:     model.PartitionID,
		segmentID:       model.SegmentID,
		taskNo:          model.TaskNo,
		properties:      props,
		locations:       a.Locations,
	}

	logger.Debug().Int("fields", len(cfg.dataFields)).Str("headerSource", h.Source.String()).Msg("assembled load configuration")
	return cfg, nil
}

func determineHeader(model *LoadModel) (header.Header, error) {
	if model.CSVHeader != "" {
		return header.Explicit(model.CSVHeader), nil
	}
	if len(model.FactFilesToProcess) == 0 {
		return header.Header{}, &ConfigurationError{
			Property: "fact_files_to_process",
			Reason:   "no csv header given and no input file to read it from",
		}
	}
	delimiter := model.CSVDelimiter
	if delimiter == "" {
		delimiter = ","
	}
	h, err := header.FromFile(model.FactFilesToProcess[0], delimiter)
	if err != nil {
		return header.Header{}, &ConfigurationError{
			Property: "fact_files_to_process",
			Value:    model.FactFilesToProcess[0],
			Reason:   "cannot read csv header",
			Err:      err,
		}
	}
	return h, nil
}

// FieldOrder is the data field order a load into td's fact table uses.
func FieldOrder(td *schema.TableDescriptor) ([]DataField, error) {
	dims, measures, err := schema.Resolve(td)
	if err != nil {
		return nil, fmt.Errorf("error in schema.Resolve: %w", err)
	}
	return buildDataFields(dims, measures, nil), nil
}

// buildDataFields orders non-complex dimensions, then complex dimensions, then
// measures, each group in schema order. The dummy measure is dropped.
func buildDataFields(dims, measures []schema.ColumnDescriptor, dateFormats map[string]string) []DataField {
	fields := make([]DataField, 0, len(dims)+len(measures))
	var complexFields []DataField
	for _, col := range dims {
		df := DataField{
			Column:     col,
			DateFormat: dateFormats[strings.ToLower(col.Name)],
		}
		if col.IsComplex {
			complexFields = append(complexFields, df)
		} else {
			fields = append(fields, df)
		}
	}
	fields = append(fields, complexFields...)
	for _, col := range measures {
		if col.Name == schema.DummyMeasureName {
			continue
		}
		fields = append(fields, DataField{Column: col, IsMeasure: true})
	}
	return fields
}

func (a *Assembler) buildProperties(model *LoadModel) (map[string]any, error) {
	nullFormat, err := DecodeLegacyPair("serialization_null_format", model.SerializationNullFormat)
	if err != nil {
		return nil, err
	}
	loggerEnable, err := DecodeLegacyPair("bad_records_logger_enable", model.BadRecordsLoggerEnable)
	if err != nil {
		return nil, err
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(loggerEnable.Value))
	if err != nil {
		return nil, &ConfigurationError{Property: "bad_records_logger_enable", Value: model.BadRecordsLoggerEnable, Reason: "not a bool", Err: err}
	}
	actionPair, err := DecodeLegacyPair("bad_records_action", model.BadRecordsAction)
	if err != nil {
		return nil, err
	}
	action, err := ParseBadRecordAction(actionPair.Value)
	if err != nil {
		return nil, &ConfigurationError{Property: "bad_records_action", Value: model.BadRecordsAction, Reason: "unknown action", Err: err}
	}

	factTimeStamp := model.FactTimeStamp
	if factTimeStamp == 0 {
		clock := a.Clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}
		factTimeStamp = clock.Now().UnixMilli()
	}

	return map[string]any{
		PropertyComplexDelimiters:       []string{model.ComplexDelimiterLevel1, model.ComplexDelimiterLevel2},
		PropertySerializationNullFormat: nullFormat.Value,
		PropertyFactTimeStamp:           factTimeStamp,
		PropertyBadRecordsLoggerEnable:  enabled,
		PropertyBadRecordsLoggerAction:  action,
		PropertyFactFilePath:            model.FactFilePath,
	}, nil
}

var ErrUnknownBadRecordAction = errors.New("unknown bad record action")

func ParseBadRecordAction(s string) (BadRecordAction, error) {
	switch action := BadRecordAction(strings.ToUpper(strings.TrimSpace(s))); action {
	case BadRecordForce, BadRecordRedirect, BadRecordIgnore, BadRecordFail:
		return action, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownBadRecordAction)
	}
}
