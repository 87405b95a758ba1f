package httpserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/repo"
)

func listQuery(c echo.Context) (repo.ListQuery, error) {
	var q repo.ListQuery
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("search", &q.Search).
		String("sortBy", &q.SortBy).
		String("sortOrder", &q.SortOrder).
		BindError()
	if err != nil {
		var field string
		if be, ok := err.(*echo.BindingError); ok {
			field = be.Field
		}
		return q, apperr.Invalid(field, "must be a number")
	}
	return q.Normalize(), nil
}

// boolQuery reads an optional true/false filter.
func boolQuery(c echo.Context, name string) (*bool, error) {
	if c.QueryParam(name) == "" {
		return nil, nil
	}
	var v bool
	if err := echo.QueryParamsBinder(c).Bool(name, &v).BindError(); err != nil {
		return nil, apperr.Invalid(name, "must be true or false")
	}
	return &v, nil
}

func idParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Invalid("id", "must be a valid id")
	}
	return id, nil
}
