package decode

import (
	"errors"
	"fmt"

	"github.com/preston-bernstein/nba-stables-widgets/internal/fetch"
)

// ErrorKind tags a pipeline failure so every caller applies the same recovery.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindHTTPStatus
	KindEmptyBody
	KindDecode
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindEmptyBody:
		return "empty_body"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// HTTPStatusError is returned for any non-2xx response. The body is never inspected.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("Error: %d", e.StatusCode)
}

// EmptyBodyError is returned for a 2xx response without an entity.
type EmptyBodyError struct{}

func (e *EmptyBodyError) Error() string { return NoDataText }

// DecodeError is returned when the body is not JSON of the expected shape.
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AsHTTPStatusError attempts to unwrap an error into an HTTPStatusError.
func AsHTTPStatusError(err error) (*HTTPStatusError, bool) {
	var target *HTTPStatusError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsDecodeError attempts to unwrap an error into a DecodeError.
func AsDecodeError(err error) (*DecodeError, bool) {
	var target *DecodeError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Classify maps an error onto the failure taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if _, ok := fetch.AsTransportError(err); ok {
		return KindTransport
	}
	if _, ok := AsHTTPStatusError(err); ok {
		return KindHTTPStatus
	}
	var empty *EmptyBodyError
	if errors.As(err, &empty) {
		return KindEmptyBody
	}
	if _, ok := AsDecodeError(err); ok {
		return KindDecode
	}
	return KindUnknown
}
