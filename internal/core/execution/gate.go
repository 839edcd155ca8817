package execution

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
)

// Handler executes one named operation against a request context.
type Handler[A, R any] interface {
	Handle(ctx context.Context, req *Request, args A) (R, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc[A, R any] func(ctx context.Context, req *Request, args A) (R, error)

func (f HandlerFunc[A, R]) Handle(ctx context.Context, req *Request, args A) (R, error) {
	return f(ctx, req, args)
}

// Middleware decorates a Handler with the same signature.
type Middleware[A, R any] func(Handler[A, R]) Handler[A, R]

// Chain wraps h so that mws[0] is the outermost layer.
func Chain[A, R any](h Handler[A, R], mws ...Middleware[A, R]) Handler[A, R] {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithAuthentication rejects anonymous callers with domain.ErrAuthenticationRequired.
func WithAuthentication[A, R any](next Handler[A, R]) Handler[A, R] {
	return HandlerFunc[A, R](func(ctx context.Context, req *Request, args A) (R, error) {
		if req.Caller == nil {
			var zero R
			return zero, domain.ErrAuthenticationRequired
		}
		return next.Handle(ctx, req, args)
	})
}

// WithRole rejects anonymous callers with domain.ErrAuthenticationRequired and
// callers whose role is not listed with domain.ErrAuthorizationDenied.
func WithRole[A, R any](next Handler[A, R], roles ...domain.Role) Handler[A, R] {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return HandlerFunc[A, R](func(ctx context.Context, req *Request, args A) (R, error) {
		var zero R
		if req.Caller == nil {
			return zero, domain.ErrAuthenticationRequired
		}
		if _, ok := allowed[req.Caller.Role]; !ok {
			return zero, domain.ErrAuthorizationDenied
		}
		return next.Handle(ctx, req, args)
	})
}

// RequireRole is WithRole in Middleware form, for use with Chain.
func RequireRole[A, R any](roles ...domain.Role) Middleware[A, R] {
	return func(next Handler[A, R]) Handler[A, R] {
		return WithRole(next, roles...)
	}
}
