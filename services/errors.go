package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("not configured")
	ErrEmptyFeed     = errors.New("feed has no items")
	ErrUpstream      = errors.New("upstream request failed")
)

// UpstreamError is a non-2xx or undecodable response from a content API.
type UpstreamError struct {
	Source string
	URL    string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: %s returned %d: %v", e.Source, e.URL, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Source, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s returned %d", e.Source, e.URL, e.Status)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// clientError reports a 4xx answer. Those say nothing about upstream health.
func (e *UpstreamError) clientError() bool {
	return e.Status >= 400 && e.Status < 500
}
