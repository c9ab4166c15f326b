package session

import (
	"net/http"

	"github.com/vuquang23/go-steam-session/token"
)

// Credentials start a credential login. Password is wiped once BeginWithCredentials returns.
type Credentials struct {
	AccountName string
	Password    []byte

	// GuardData is the machine token from an earlier login; it lets the provider skip email codes.
	GuardData string
}

// Result is what an established session hands over to its caller.
type Result struct {
	SteamID     uint64
	AccountName string
	Tokens      token.Pair
	Cookies     []*http.Cookie

	// GuardData is set when the provider issued a new machine token.
	GuardData string
}
