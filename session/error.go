package session

import (
	"errors"
	"fmt"

	"github.com/vuquang23/go-steam-session/credential"
	"github.com/vuquang23/go-steam-session/token"
)

var (
	ErrMissingCredentials = errors.New("missing account name or password")
	ErrCancelled          = errors.New("session cancelled")
	ErrResultTaken        = errors.New("session result already handed over")

	// Begin rejections.
	ErrStaleKey           = errors.New("rsa key is stale")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRejected           = errors.New("login rejected")

	// Poll outcomes.
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session revoked")

	// Code submission rejections.
	ErrWrongCode               = errors.New("wrong code")
	ErrNoSuchMethodOutstanding = errors.New("confirmation method is not outstanding")

	// ErrTransport means the provider could not be reached or gave no usable answer
	// after the retries were spent.
	ErrTransport = errors.New("transport failure")
)

// BeginSessionError is returned when a session cannot be started.
// Reason is one of ErrStaleKey, ErrRateLimited, ErrInvalidCredentials, ErrRejected or ErrTransport.
type BeginSessionError struct {
	Reason error
	Err    error
}

func (e *BeginSessionError) Error() string {
	return fmt.Sprintf("begin session: %v: %v", e.Reason, e.Err)
}

func (e *BeginSessionError) Unwrap() []error {
	return []error{e.Reason, e.Err}
}

// PollError ends a session that was waiting for confirmation or finalizing.
// Reason is one of ErrSessionExpired, ErrSessionRevoked or ErrTransport.
type PollError struct {
	Reason error
	Err    error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll session: %v: %v", e.Reason, e.Err)
}

func (e *PollError) Unwrap() []error {
	return []error{e.Reason, e.Err}
}

// SubmitError is returned by SubmitCode. The session itself is unaffected.
// Reason is one of ErrWrongCode, ErrNoSuchMethodOutstanding or ErrTransport.
type SubmitError struct {
	Method Method
	Reason error
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("submit %v: %v", e.Method, e.Reason)
	}
	return fmt.Sprintf("submit %v: %v: %v", e.Method, e.Reason, e.Err)
}

func (e *SubmitError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// NeedsRestart reports whether err means the login must start again from scratch.
func NeedsRestart(err error) bool {
	var keyErr *credential.KeyFetchError

	switch {
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrSessionRevoked), errors.Is(err, token.ErrRevoked):
		return true

	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrRejected), errors.Is(err, ErrStaleKey):
		return true

	case errors.As(err, &keyErr):
		return true

	default:
		var pollErr *PollError
		return errors.As(err, &pollErr)
	}
}

// NeedsInput reports whether err asks the user for a new code while the session keeps waiting.
func NeedsInput(err error) bool {
	return errors.Is(err, ErrWrongCode)
}
