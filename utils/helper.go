package utils

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes bounds the bodies we buffer for signature checks.
const MaxBodyBytes = 1 << 20

var ErrBodyTooLarge = errors.New("request body too large")

// ReadBody reads the request body and puts it back so later binders can read it again.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(bodyBytes) > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	return bodyBytes, nil
}
