package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorizationDenied    = errors.New("not authorized")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("already exists")
	ErrDependency             = errors.New("dependency unavailable")
	ErrSlowConsumer           = errors.New("subscriber too slow, events dropped")
)

// Entity kinds used by NotFoundError.
const (
	KindUser    = "user"
	KindPost    = "post"
	KindComment = "comment"
)

// NotFoundError reports a missing entity of the given kind.
type NotFoundError struct {
	Kind string
}

func NotFound(kind string) error { return &NotFoundError{Kind: kind} }

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a unique-field collision.
type ConflictError struct {
	Field string
}

func Conflict(field string) error { return &ConflictError{Field: field} }

func (e *ConflictError) Error() string {
	return fmt.Sprintf("user with this %s already exists", e.Field)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DependencyError wraps a failure of a shared infrastructure component
// (cache, event bus) so callers can tell it apart from store failures.
type DependencyError struct {
	Component string
	Err       error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }
