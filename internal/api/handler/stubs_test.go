package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/api/middleware"
	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
)

// fn lifts a plain function into an operation handler for stubbing Operations.
func fn[A, R any](f func(args A) (R, error)) execution.Handler[A, R] {
	return execution.HandlerFunc[A, R](func(_ context.Context, _ *execution.Request, args A) (R, error) {
		return f(args)
	})
}

// newContext builds an echo context carrying an execution request for caller
// (nil for anonymous).
func newContext(method, target, body string, caller *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.RequestContextKey, &execution.Request{Caller: caller})
	return c, rec
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

// fakeSubscription replays a fixed set of events then ends with err.
type fakeSubscription struct {
	events chan domain.Event
	err    error
	closed bool
}

func newFakeSubscription(err error, events ...domain.Event) *fakeSubscription {
	ch := make(chan domain.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &fakeSubscription{events: ch, err: err}
}

func (s *fakeSubscription) ID() string                  { return "sub-1" }
func (s *fakeSubscription) Events() <-chan domain.Event { return s.events }
func (s *fakeSubscription) Err() error                  { return s.err }
func (s *fakeSubscription) Close()                      { s.closed = true }
