package token

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpired        = errors.New("token expired")

	// ErrRevoked means the refresh token can no longer be used; log in again.
	ErrRevoked = errors.New("refresh token revoked")

	// ErrTransport means the refresh did not reach a verdict; retrying may succeed.
	ErrTransport = errors.New("refresh transport failure")
)

// RefreshError is returned by Refresh. Reason is ErrRevoked or ErrTransport.
type RefreshError struct {
	Reason error
	Err    error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%v: %v", e.Reason, e.Err)
}

func (e *RefreshError) Unwrap() []error {
	return []error{e.Reason, e.Err}
}
