package webapi

import "errors"

// ErrUnexpectedStatus is returned for a non-2xx response that carries no result header.
var ErrUnexpectedStatus = errors.New("unexpected http status")
