package cmsocket

import "errors"

// ErrTryAnotherCM is returned when the endpoint asks the client to connect elsewhere.
var ErrTryAnotherCM = errors.New("endpoint asked to try another connection manager")
