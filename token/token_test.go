package token_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/token"
)

const steamID = "76561197960287930"

func sign(t *testing.T, ttl time.Duration, aud ...string) string {
	t.Helper()

	now := time.Now()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "steam",
			Subject:   steamID,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OAT: now.Unix(),
		Per: 1,
	}).SignedString([]byte("test"))
	require.NoError(t, err)

	return tok
}

func TestParse(t *testing.T) {
	claims, err := token.Parse(sign(t, time.Hour, token.AudienceWeb))
	require.NoError(t, err)

	id, err := claims.SteamID()
	require.NoError(t, err)
	require.Equal(t, uint64(76561197960287930), id)
	require.False(t, claims.Renewable())
	require.False(t, claims.Expired(time.Now()))

	_, err = token.Parse("not.a.jwt")
	require.ErrorIs(t, err, token.ErrMalformedToken)
}

func TestCookies(t *testing.T) {
	access := sign(t, time.Hour, token.AudienceWeb)
	claims, err := token.Parse(access)
	require.NoError(t, err)

	cookies, err := token.Cookies(token.Pair{AccessToken: access}, token.DefaultDomains)
	require.NoError(t, err)
	require.Len(t, cookies, len(token.DefaultDomains))

	for i, cookie := range cookies {
		require.Equal(t, "steamLoginSecure", cookie.Name)
		require.Equal(t, token.DefaultDomains[i], cookie.Domain)
		require.True(t, cookie.Secure)
		require.Equal(t, claims.Expiry(), cookie.Expires)

		value, err := url.QueryUnescape(cookie.Value)
		require.NoError(t, err)
		require.Equal(t, steamID+"||"+access, value)
	}

	again, err := token.Cookies(token.Pair{AccessToken: access}, token.DefaultDomains)
	require.NoError(t, err)
	require.Equal(t, cookies, again)
}

type refreshServer struct {
	access  string
	refresh string
	err     error

	got *protocol.GenerateAccessTokenForAppRequest
}

func (s *refreshServer) Call(_ context.Context, req protocol.Request, res protocol.Message) error {
	s.got = req.(*protocol.GenerateAccessTokenForAppRequest)

	if s.err != nil {
		return s.err
	}

	out := res.(*protocol.GenerateAccessTokenForAppResponse)
	out.AccessToken = s.access
	out.RefreshToken = s.refresh

	return nil
}

func TestRefresh(t *testing.T) {
	refresh := sign(t, 24*time.Hour, token.AudienceWeb, token.AudienceRenew, token.AudienceDerive)
	srv := &refreshServer{access: sign(t, time.Hour, token.AudienceWeb)}

	pair, err := token.NewRefresher(srv).Refresh(context.Background(), refresh)
	require.NoError(t, err)
	require.Equal(t, srv.access, pair.AccessToken)
	require.Equal(t, refresh, pair.RefreshToken)
	require.Equal(t, protocol.ETokenRenewalTypeAllow, srv.got.RenewalType)
	require.Equal(t, uint64(76561197960287930), srv.got.SteamID)

	claims, err := token.Parse(pair.AccessToken)
	require.NoError(t, err)
	require.True(t, claims.Expiry().After(time.Now()))
}

func TestRefresh_Rotation(t *testing.T) {
	rotated := sign(t, 48*time.Hour, token.AudienceRenew)
	srv := &refreshServer{access: sign(t, time.Hour), refresh: rotated}

	pair, err := token.NewRefresher(srv).Refresh(context.Background(), sign(t, time.Hour, token.AudienceRenew))
	require.NoError(t, err)
	require.Equal(t, rotated, pair.RefreshToken)
}

func TestRefresh_Errors(t *testing.T) {
	refresh := sign(t, time.Hour, token.AudienceRenew)

	tests := []struct {
		name   string
		err    error
		reason error
	}{
		{"revoked", &protocol.EResultError{Result: protocol.EResultRevoked}, token.ErrRevoked},
		{"access denied", &protocol.EResultError{Result: protocol.EResultAccessDenied}, token.ErrRevoked},
		{"busy", &protocol.EResultError{Result: protocol.EResultBusy}, token.ErrTransport},
		{"network", errors.New("connection reset"), token.ErrTransport},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := token.NewRefresher(&refreshServer{err: test.err}).Refresh(context.Background(), refresh)
			require.ErrorIs(t, err, test.reason)
			require.ErrorIs(t, err, test.err)

			var refreshErr *token.RefreshError
			require.ErrorAs(t, err, &refreshErr)
		})
	}
}

func TestRefresh_ExpiredLocally(t *testing.T) {
	srv := &refreshServer{}

	_, err := token.NewRefresher(srv).Refresh(context.Background(), sign(t, -time.Minute, token.AudienceRenew))
	require.ErrorIs(t, err, token.ErrRevoked)
	require.ErrorIs(t, err, token.ErrExpired)
	require.Nil(t, srv.got, "no call is made for an expired token")
}

func TestRefresh_Malformed(t *testing.T) {
	_, err := token.NewRefresher(&refreshServer{}).Refresh(context.Background(), strings.Repeat("x", 10))
	require.ErrorIs(t, err, token.ErrRevoked)
	require.ErrorIs(t, err, token.ErrMalformedToken)
}
