package protocol

import (
	"fmt"
	"net/http"
)

// ServiceMethod names one call of the provider's service API.
type ServiceMethod struct {
	Interface  string
	Method     string
	Version    int
	HTTPMethod string
}

// Path is the request/response endpoint path, relative to the API host.
func (m ServiceMethod) Path() string {
	return fmt.Sprintf("/I%sService/%s/v%d", m.Interface, m.Method, m.Version)
}

// JobName is the name used for the same call on the push socket.
func (m ServiceMethod) JobName() string {
	return fmt.Sprintf("%s.%s#%d", m.Interface, m.Method, m.Version)
}

func (m ServiceMethod) String() string {
	return m.JobName()
}

var (
	MethodGetPasswordRSAPublicKey             = ServiceMethod{"Authentication", "GetPasswordRSAPublicKey", 1, http.MethodGet}
	MethodBeginAuthSessionViaCredentials      = ServiceMethod{"Authentication", "BeginAuthSessionViaCredentials", 1, http.MethodPost}
	MethodBeginAuthSessionViaQR               = ServiceMethod{"Authentication", "BeginAuthSessionViaQR", 1, http.MethodPost}
	MethodPollAuthSessionStatus               = ServiceMethod{"Authentication", "PollAuthSessionStatus", 1, http.MethodPost}
	MethodUpdateAuthSessionWithSteamGuardCode = ServiceMethod{"Authentication", "UpdateAuthSessionWithSteamGuardCode", 1, http.MethodPost}
	MethodGenerateAccessTokenForApp           = ServiceMethod{"Authentication", "GenerateAccessTokenForApp", 1, http.MethodPost}
	MethodQueryTime                           = ServiceMethod{"TwoFactor", "QueryTime", 1, http.MethodPost}
)
