package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/api/metrics"
	"github.com/sirpyerre/discussion-api/internal/api/middleware"
	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// invoke runs one operation against the execution context that the Caller
// middleware attached to c, and records the outcome.
func invoke[A, R any](c echo.Context, name string, h execution.Handler[A, R], args A) (R, error) {
	req := middleware.RequestFrom(c)
	if req == nil {
		var zero R
		return zero, echo.NewHTTPError(http.StatusInternalServerError, "request context missing")
	}

	start := time.Now()
	out, err := h.Handle(c.Request().Context(), req, args)
	metrics.ObserveOperation(name, start, err)
	return out, err
}

// caller is the authenticated user of the request, nil when anonymous.
func caller(c echo.Context) *domain.User {
	if req := middleware.RequestFrom(c); req != nil {
		return req.Caller
	}
	return nil
}

// bindAndValidate decodes the body into dst and runs the struct validator.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// pageQuery binds ?skip=&limit=.
type pageQuery struct {
	Skip  int `query:"skip"  validate:"min=0"`
	Limit int `query:"limit" validate:"min=0"`
}

func bindPage(c echo.Context) (ports.Page, error) {
	page, err := bindRawPage(c)
	if err != nil {
		return ports.Page{}, err
	}
	return page.Normalize(), nil
}

// bindRawPage binds skip and limit without applying defaults; an absent
// limit stays zero.
func bindRawPage(c echo.Context) (ports.Page, error) {
	var q pageQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return ports.Page{}, echo.NewHTTPError(http.StatusBadRequest, "skip and limit must be integers")
	}
	if err := c.Validate(&q); err != nil {
		return ports.Page{}, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return ports.Page{Skip: q.Skip, Limit: q.Limit}, nil
}
