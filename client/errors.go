package client

import (
	"errors"
	"fmt"

	"github.com/blackoreo/namwatch/borsh"
	"github.com/blackoreo/namwatch/types"
)

// ErrNotFound signals an absent on-chain key. It is the chain's convention
// for "no such validator / proposal", not a failure.
var ErrNotFound = errors.New("queried key does not exist")

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

/*
TransportError wraps a failure of the underlying query transport. Retryable
failures (timeouts, connection resets, server overload) are expected to
succeed on a later attempt; non-retryable ones (malformed request, rejected
query path) will not and must be surfaced instead of retried.
*/
type TransportError struct {
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("transport error (retryable): %v", e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RetryableError wraps err as a transport failure worth retrying.
func RetryableError(err error) *TransportError {
	return &TransportError{Retryable: true, Err: err}
}

// PermanentError wraps err as a transport failure that retrying cannot fix.
func PermanentError(err error) *TransportError {
	return &TransportError{Retryable: false, Err: err}
}

// IsRetryable reports whether err is a transport failure that may succeed
// on a later poll cycle.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Retryable
}

type DecodeErrorKind uint8

const (
	// KindLengthMismatch: the input ended before a field's declared width,
	// or carried bytes past the last field.
	KindLengthMismatch DecodeErrorKind = iota
	// KindInvalidDiscriminant: a tag byte outside the allow-list of a field
	// that has no forward-compatible fallback.
	KindInvalidDiscriminant
	// KindOutOfRange: a value decoded fine but violates its domain bounds,
	// e.g. a commission rate above 1.
	KindOutOfRange
	// KindInvalidAddress: an embedded address failed checksum, prefix or
	// length validation.
	KindInvalidAddress
)

func (k DecodeErrorKind) String() string {
	switch k {
	case KindLengthMismatch:
		return "length-mismatch"
	case KindInvalidDiscriminant:
		return "invalid-discriminant"
	case KindOutOfRange:
		return "out-of-range"
	case KindInvalidAddress:
		return "invalid-address"
	default:
		return fmt.Sprintf("DecodeErrorKind(%d)", uint8(k))
	}
}

// DecodeError is a malformed query response. It is a data error scoped to
// one record; it never aborts a poll batch.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response (%s): %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err stems from a malformed response.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// decodeFailure classifies a low-level decoding error into the DecodeError
// taxonomy. Unknown causes default to length-mismatch, the broadest
// "malformed bytes" category.
func decodeFailure(err error) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	kind := KindLengthMismatch
	switch {
	case errors.Is(err, types.ErrDecOutOfRange):
		kind = KindOutOfRange
	case errors.Is(err, borsh.ErrInvalidOption),
		errors.Is(err, borsh.ErrInvalidBool),
		errors.Is(err, borsh.ErrInvalidString):
		kind = KindInvalidDiscriminant
	case errors.Is(err, types.ErrInvalidChecksum),
		errors.Is(err, types.ErrInvalidPrefix),
		errors.Is(err, types.ErrInvalidLength):
		kind = KindInvalidAddress
	}
	return &DecodeError{Kind: kind, Err: err}
}
