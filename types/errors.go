package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidBounds = errors.New("invalid bounding box")
	ErrQueryFailed   = errors.New("query failed")
	ErrValidation    = errors.New("validation failed")
)

// InvalidBoundsError describes a rejected rectangle.
type InvalidBoundsError struct {
	Box    BoundingBox
	Reason string
}

func (e *InvalidBoundsError) Error() string {
	return fmt.Sprintf("invalid bounding box [%g,%g,%g,%g]: %s",
		e.Box.MinLng, e.Box.MinLat, e.Box.MaxLng, e.Box.MaxLat, e.Reason)
}

func (e *InvalidBoundsError) Is(target error) bool {
	return target == ErrInvalidBounds
}

// QueryError wraps a store failure so callers can tell it apart from an empty result.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
