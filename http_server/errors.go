package http_server

import (
	"errors"
	"net/http"

	"github.com/danthegoodman1/icedb/header"
	"github.com/danthegoodman1/icedb/load_config"
	"github.com/danthegoodman1/icedb/metastore"
	"github.com/danthegoodman1/icedb/pipeline"
	"github.com/danthegoodman1/icedb/schema"
)

// loaderError maps loader failures onto status codes, anything unknown is a 500.
func (c *CustomContext) loaderError(err error, msg string) error {
	var (
		hm  *header.HeaderMismatchError
		ce  *load_config.ConfigurationError
		se  *schema.SchemaError
		bre *pipeline.BadRecordError
	)
	switch {
	case errors.Is(err, metastore.ErrTableNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, metastore.ErrTableExists):
		return c.String(http.StatusConflict, err.Error())
	case errors.As(err, &hm), errors.As(err, &ce), errors.As(err, &se), errors.As(err, &bre):
		return c.String(http.StatusBadRequest, err.Error())
	default:
		return c.InternalError(err, msg)
	}
}
