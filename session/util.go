package session

import (
	"context"
	"time"

	"github.com/vuquang23/go-steam-session/protocol"
)

// methodsFor maps the provider's confirmation kinds onto methods. Kinds that need
// nothing from the user are dropped. On a QR session the device confirmation is the scan approval.
func methodsFor(kind Kind, confs []protocol.AllowedConfirmation) MethodSet {
	var set MethodSet

	for _, conf := range confs {
		switch conf.ConfirmationType {
		case protocol.EAuthSessionGuardTypeEmailCode:
			set |= MethodSet(MethodEmailCode)

		case protocol.EAuthSessionGuardTypeDeviceCode:
			set |= MethodSet(MethodGuardCode)

		case protocol.EAuthSessionGuardTypeDeviceConfirmation:
			if kind == KindQR {
				set |= MethodSet(MethodQrScanApproval)
			} else {
				set |= MethodSet(MethodDeviceConfirmation)
			}

		case protocol.EAuthSessionGuardTypeEmailConfirmation:
			set |= MethodSet(MethodEmailConfirmation)
		}
	}

	return set
}

func guardTypeOf(method Method) (protocol.EAuthSessionGuardType, bool) {
	switch method {
	case MethodGuardCode:
		return protocol.EAuthSessionGuardTypeDeviceCode, true

	case MethodEmailCode:
		return protocol.EAuthSessionGuardTypeEmailCode, true

	default:
		return 0, false
	}
}

func classifyBegin(err error) error {
	res, ok := protocol.ResultOf(err)
	if !ok || res.IsTransient() {
		return &BeginSessionError{Reason: ErrTransport, Err: err}
	}

	switch res {
	case protocol.EResultInvalidPassword, protocol.EResultInvalidName, protocol.EResultAccessDenied, protocol.EResultAccountNotFound:
		return &BeginSessionError{Reason: ErrInvalidCredentials, Err: err}

	case protocol.EResultRateLimitExceeded, protocol.EResultAccountLoginDeniedThrottle:
		return &BeginSessionError{Reason: ErrRateLimited, Err: err}

	case protocol.EResultExpired:
		return &BeginSessionError{Reason: ErrStaleKey, Err: err}

	default:
		return &BeginSessionError{Reason: ErrRejected, Err: err}
	}
}

// classifyPoll returns nil for failures worth another attempt.
func classifyPoll(err error) error {
	res, ok := protocol.ResultOf(err)
	if !ok || res.IsTransient() {
		return nil
	}

	if res == protocol.EResultExpired {
		return &PollError{Reason: ErrSessionExpired, Err: err}
	}

	return &PollError{Reason: ErrSessionRevoked, Err: err}
}

func classifySubmit(method Method, err error) error {
	res, ok := protocol.ResultOf(err)
	if !ok {
		return &SubmitError{Method: method, Reason: ErrTransport, Err: err}
	}

	switch res {
	case protocol.EResultDuplicateRequest:
		return nil

	case protocol.EResultTwoFactorCodeMismatch, protocol.EResultInvalidLoginAuthCode, protocol.EResultExpiredLoginAuthCode:
		return &SubmitError{Method: method, Reason: ErrWrongCode, Err: err}

	default:
		return &SubmitError{Method: method, Reason: ErrTransport, Err: err}
	}
}

func intervalOf(seconds float32, floor time.Duration) time.Duration {
	interval := time.Duration(float64(seconds) * float64(time.Second))
	if interval <= 0 {
		interval = defaultInterval
	}

	if interval < floor {
		return floor
	}

	return interval
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		return nil
	}
}
