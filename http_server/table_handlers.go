package http_server

import (
	"net/http"

	"github.com/danthegoodman1/icedb/schema"
)

type (
	field struct {
		Name      string
		Type      schema.DataType
		IsMeasure bool
		// DateFormat is empty unless a load set one
		DateFormat string `json:",omitempty"`
	}
)

func (s *HTTPServer) CreateTable(c *CustomContext) error {
	var td schema.TableDescriptor
	if err := c.Bind(&td); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if td.FactTableName == "" {
		td.FactTableName = td.Identifier.TableName
	}
	stored, err := s.Loader.CreateTable(c.Request().Context(), &td)
	if err != nil {
		return c.loaderError(err, "error creating table")
	}
	return c.JSON(http.StatusCreated, stored)
}

func (s *HTTPServer) GetFields(c *CustomContext) error {
	fields, err := s.Loader.Fields(c.Request().Context(), c.Param("db"), c.Param("table"))
	if err != nil {
		return c.loaderError(err, "error getting fields")
	}
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		out = append(out, field{
			Name:       f.Name(),
			Type:       f.Column.Type,
			IsMeasure:  f.IsMeasure,
			DateFormat: f.DateFormat,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) GetParts(c *CustomContext) error {
	parts, err := s.Loader.Parts(c.Request().Context(), c.Param("db"), c.Param("table"), c.QueryParam("partition"))
	if err != nil {
		return c.loaderError(err, "error listing parts")
	}
	return c.JSON(http.StatusOK, parts)
}
