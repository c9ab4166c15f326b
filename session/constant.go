package session

import (
	"fmt"
	"strings"
)

// Status is the position of a session in its lifecycle.
//
//	Created -> AwaitingCredentialSubmission -> Pending -> Polling -> Confirmed -> Finalizing -> Established
//	                      (QR) Created -> Pending     Polling -> Pending (a method was satisfied)
//
// Failed, Expired and Cancelled are terminal as well as Established.
type Status int

const (
	StatusCreated Status = iota
	StatusAwaitingCredentialSubmission
	StatusPending
	StatusPolling
	StatusConfirmed
	StatusFinalizing
	StatusEstablished
	StatusFailed
	StatusExpired
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusCreated:                      "Created",
	StatusAwaitingCredentialSubmission: "AwaitingCredentialSubmission",
	StatusPending:                      "Pending",
	StatusPolling:                      "Polling",
	StatusConfirmed:                    "Confirmed",
	StatusFinalizing:                   "Finalizing",
	StatusEstablished:                  "Established",
	StatusFailed:                       "Failed",
	StatusExpired:                      "Expired",
	StatusCancelled:                    "Cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusEstablished, StatusFailed, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

var transitions = map[Status][]Status{
	StatusCreated:                      {StatusAwaitingCredentialSubmission, StatusPending, StatusFailed, StatusCancelled},
	StatusAwaitingCredentialSubmission: {StatusPending, StatusFailed, StatusCancelled},
	StatusPending:                      {StatusPolling, StatusConfirmed, StatusFailed, StatusExpired, StatusCancelled},
	StatusPolling:                      {StatusPending, StatusConfirmed, StatusFailed, StatusExpired, StatusCancelled},
	StatusConfirmed:                    {StatusFinalizing, StatusFailed, StatusExpired, StatusCancelled},
	StatusFinalizing:                   {StatusEstablished, StatusFailed, StatusExpired, StatusCancelled},
}

func (s Status) canMoveTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Kind tells which credential started the session.
type Kind int

const (
	KindCredentials Kind = iota
	KindQR
)

func (k Kind) String() string {
	if k == KindQR {
		return "QR"
	}
	return "Credentials"
}

// Method is a confirmation the provider requires before the session is granted.
type Method uint8

const (
	MethodDeviceConfirmation Method = 1 << iota
	MethodEmailCode
	MethodGuardCode
	MethodQrScanApproval
	MethodEmailConfirmation
)

var methodNames = []struct {
	method Method
	name   string
}{
	{MethodDeviceConfirmation, "DeviceConfirmation"},
	{MethodEmailCode, "EmailCode"},
	{MethodGuardCode, "GuardCode"},
	{MethodQrScanApproval, "QrScanApproval"},
	{MethodEmailConfirmation, "EmailConfirmation"},
}

func (m Method) String() string {
	for _, n := range methodNames {
		if n.method == m {
			return n.name
		}
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// MethodSet is a set of confirmation methods.
type MethodSet uint8

func NewMethodSet(methods ...Method) MethodSet {
	var set MethodSet
	for _, m := range methods {
		set |= MethodSet(m)
	}
	return set
}

func (s MethodSet) Has(m Method) bool {
	return s&MethodSet(m) != 0
}

func (s MethodSet) Empty() bool {
	return s == 0
}

// Intersect returns the methods present in both sets.
func (s MethodSet) Intersect(other MethodSet) MethodSet {
	return s & other
}

func (s MethodSet) Methods() []Method {
	var methods []Method
	for _, n := range methodNames {
		if s.Has(n.method) {
			methods = append(methods, n.method)
		}
	}
	return methods
}

func (s MethodSet) String() string {
	names := make([]string, 0, len(methodNames))
	for _, m := range s.Methods() {
		names = append(names, m.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
