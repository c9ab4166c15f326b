package credential

import (
	"errors"
	"fmt"
)

var ErrInvalidKey = errors.New("invalid rsa key")

// KeyFetchError is returned when the key for an account cannot be obtained.
type KeyFetchError struct {
	AccountName string
	Err         error
}

func (e *KeyFetchError) Error() string {
	return fmt.Sprintf("fetch rsa key for %q: %v", e.AccountName, e.Err)
}

func (e *KeyFetchError) Unwrap() error {
	return e.Err
}
