package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformed is reported for any body or frame that cannot be decoded:
// a broken envelope, a wire type that does not match the schema, or a truncated payload.
var ErrMalformed = errors.New("malformed message")

// CodecError describes a decode failure of one message.
type CodecError struct {
	Message string
	Err     error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Message, e.Err)
}

func (e *CodecError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// EResultError is returned when the provider answers with a non-OK result.
type EResultError struct {
	Result  EResult
	Message string
}

func (e *EResultError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("eresult %v (%d)", e.Result, int32(e.Result))
	}
	return fmt.Sprintf("eresult %v (%d): %s", e.Result, int32(e.Result), e.Message)
}

// ResultOf extracts the provider result from err, if there is one.
func ResultOf(err error) (EResult, bool) {
	var resErr *EResultError
	if errors.As(err, &resErr) {
		return resErr.Result, true
	}
	return EResultInvalid, false
}
