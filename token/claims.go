// Package token turns access/refresh tokens into session material and renews them.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audiences carried by tokens the provider mints.
const (
	AudienceWeb    = "web"
	AudienceClient = "client"
	AudienceMobile = "mobile"
	AudienceRenew  = "renew"
	AudienceDerive = "derive"
)

// Claims are the claims embedded in access and refresh tokens. The subject is the steam id.
type Claims struct {
	jwt.RegisteredClaims

	// OAT is when the original login happened, in unix seconds.
	OAT int64 `json:"oat,omitempty"`

	// Persistence of the login (see protocol.ESessionPersistence).
	Per int32 `json:"per,omitempty"`

	IPSubject   string `json:"ip_subject,omitempty"`
	IPConfirmer string `json:"ip_confirmer,omitempty"`
}

// Parse decodes the claims of tok locally. The signature is not checked:
// only the provider can verify it, and it does so on every use.
func Parse(tok string) (*Claims, error) {
	var claims Claims

	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if claims.ExpiresAt == nil || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing exp or sub", ErrMalformedToken)
	}

	return &claims, nil
}

// SteamID returns the numeric subject.
func (c *Claims) SteamID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrMalformedToken, c.Subject)
	}

	return id, nil
}

// Expiry returns the exp claim.
func (c *Claims) Expiry() time.Time {
	return c.ExpiresAt.Time
}

// Expired reports whether the token is no longer valid at now.
func (c *Claims) Expired(now time.Time) bool {
	return !now.Before(c.Expiry())
}

// Renewable reports whether the token can be used to mint new access tokens.
func (c *Claims) Renewable() bool {
	for _, aud := range c.Audience {
		if aud == AudienceRenew || aud == AudienceDerive {
			return true
		}
	}

	return false
}
