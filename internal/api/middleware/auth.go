package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/core/execution"
)

// RequestContextKey is the echo.Context key holding the *execution.Request.
const RequestContextKey = "execution_request"

// Caller builds the per-request execution context from the Authorization
// header. It never rejects: a bad or missing token leaves the request
// anonymous and the operation's gate decides.
func Caller(rt *execution.Runtime) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := rt.NewRequest(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			c.Set(RequestContextKey, req)
			if req.Caller != nil {
				c.Set("user_id", req.Caller.ID)
			}
			return next(c)
		}
	}
}

// RequestFrom returns the execution context stored by Caller, or nil.
func RequestFrom(c echo.Context) *execution.Request {
	req, _ := c.Get(RequestContextKey).(*execution.Request)
	return req
}
