package community

import (
	"errors"

	"github.com/vuquang23/go-steam-session/session"
)

var (
	ErrMissingDetails    = errors.New("missing account name or password")
	ErrRequiresTwoFactor = errors.New("requires two factor")
	ErrRequiresEmailCode = errors.New("requires email code")
	ErrNotLoggedIn       = errors.New("not logged in")
)

// CodePrompt asks the user for the code of method. It is called while the login
// waits, so the code belongs to the login in progress.
type CodePrompt func(method session.Method) (string, error)

type LoginDetails struct {
	AccountName string
	Password    string

	// TwoFactorCode is used as is. When empty, a code is generated from SharedSecret.
	TwoFactorCode string
	SharedSecret  string

	EmailCode string

	// Code is asked for codes not given above, and again after a wrong one.
	Code CodePrompt

	// GuardData is the machine token returned by GetGuardData after an earlier login.
	GuardData string
}
