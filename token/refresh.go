package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
)

var log = logrus.WithField("pkg", "go-steam-session/token")

// Caller issues a service method call.
type Caller interface {
	Call(ctx context.Context, req protocol.Request, res protocol.Message) error
}

// Refresher mints access tokens from refresh tokens.
type Refresher struct {
	api Caller
}

func NewRefresher(api Caller) *Refresher {
	return &Refresher{api: api}
}

// Refresh renews the access token. The provider may rotate the refresh token too;
// the returned Pair always holds the refresh token to use from now on.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	claims, err := Parse(refreshToken)
	if err != nil {
		return Pair{}, &RefreshError{Reason: ErrRevoked, Err: err}
	}

	if claims.Expired(time.Now()) {
		return Pair{}, &RefreshError{Reason: ErrRevoked, Err: ErrExpired}
	}

	return r.Exchange(ctx, refreshToken, true)
}

// Exchange mints an access token for refreshToken. With renew set the provider
// may also issue a new refresh token.
func (r *Refresher) Exchange(ctx context.Context, refreshToken string, renew bool) (Pair, error) {
	claims, err := Parse(refreshToken)
	if err != nil {
		return Pair{}, &RefreshError{Reason: ErrRevoked, Err: err}
	}

	steamID, err := claims.SteamID()
	if err != nil {
		return Pair{}, &RefreshError{Reason: ErrRevoked, Err: err}
	}

	req := &protocol.GenerateAccessTokenForAppRequest{
		RefreshToken: refreshToken,
		SteamID:      steamID,
		RenewalType:  protocol.ETokenRenewalTypeNone,
	}
	if renew {
		req.RenewalType = protocol.ETokenRenewalTypeAllow
	}

	var res protocol.GenerateAccessTokenForAppResponse

	if err := r.api.Call(ctx, req, &res); err != nil {
		return Pair{}, classify(err)
	}

	pair := Pair{AccessToken: res.AccessToken, RefreshToken: refreshToken}
	if res.RefreshToken != "" {
		pair.RefreshToken = res.RefreshToken
	}

	access, err := Parse(pair.AccessToken)
	if err != nil {
		return Pair{}, &RefreshError{Reason: ErrTransport, Err: err}
	}

	if access.Expired(time.Now()) {
		return Pair{}, &RefreshError{Reason: ErrTransport, Err: fmt.Errorf("new access token: %w", ErrExpired)}
	}

	log.WithFields(logrus.Fields{
		"steam_id": steamID,
		"rotated":  res.RefreshToken != "",
		"expires":  access.Expiry(),
	}).Debug("Minted access token")

	return pair, nil
}

func classify(err error) error {
	res, ok := protocol.ResultOf(err)
	if !ok || res.IsTransient() || errors.Is(err, protocol.ErrMalformed) {
		return &RefreshError{Reason: ErrTransport, Err: err}
	}

	return &RefreshError{Reason: ErrRevoked, Err: err}
}
