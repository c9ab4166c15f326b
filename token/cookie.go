package token

import (
	"fmt"
	"net/http"
	"net/url"
)

const cookieSteamLoginSecure = "steamLoginSecure"

// DefaultDomains are the web properties cookies are derived for.
var DefaultDomains = []string{
	"steamcommunity.com",
	"store.steampowered.com",
	"help.steampowered.com",
}

// Pair is an access token with the refresh token that renews it.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Cookies derives one login cookie per domain from the access token.
// Each cookie expires with the token.
func Cookies(pair Pair, domains []string) ([]*http.Cookie, error) {
	claims, err := Parse(pair.AccessToken)
	if err != nil {
		return nil, err
	}

	steamID, err := claims.SteamID()
	if err != nil {
		return nil, err
	}

	value := url.QueryEscape(fmt.Sprintf("%d||%s", steamID, pair.AccessToken))

	cookies := make([]*http.Cookie, 0, len(domains))
	for _, domain := range domains {
		cookies = append(cookies, &http.Cookie{
			Name:     cookieSteamLoginSecure,
			Value:    value,
			Path:     "/",
			Domain:   domain,
			Expires:  claims.Expiry(),
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteNoneMode,
		})
	}

	return cookies, nil
}
