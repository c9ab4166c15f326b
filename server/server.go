// Package server is an in-process fake of the provider's authentication service,
// for tests and local development.
package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vuquang23/go-steam-session/protocol"
	"golang.org/x/net/websocket"
)

type Server struct {
	// r is the gin router.
	r *gin.Engine

	// s is the underlying server.
	s *httptest.Server

	// b is the server backend, which manages accounts, sessions and tokens.
	b *backend

	// callWatchers records calls received by the server.
	callWatchers     []callWatcher
	callWatchersLock sync.RWMutex

	// offline is whether to pretend the server is offline and return 5xx errors.
	offline atomic.Bool

	// pushEnabled is whether QR sessions are offered the push socket.
	pushEnabled atomic.Bool

	// pushRefused is whether the push socket hangs up on every subscriber.
	pushRefused atomic.Bool

	// pushSubscriptions counts the push sockets that subscribed to a session.
	pushSubscriptions atomic.Int32

	conns     map[*websocket.Conn]struct{}
	connsLock sync.Mutex
}

func New(opts ...Option) *Server {
	builder := newServerBuilder()

	for _, opt := range opts {
		opt.config(builder)
	}

	return builder.build()
}

func (s *Server) GetHostURL() string {
	return s.s.URL
}

// GetPushURL returns the push socket endpoint announced to QR sessions.
func (s *Server) GetPushURL() string {
	if strings.HasPrefix(s.s.URL, "https://") {
		return "wss://" + strings.TrimPrefix(s.s.URL, "https://") + "/cmsocket/"
	}

	return "ws://" + strings.TrimPrefix(s.s.URL, "http://") + "/cmsocket/"
}

// GetTLSConfig returns a client TLS config trusting the server certificate.
func (s *Server) GetTLSConfig() *tls.Config {
	return s.s.Client().Transport.(*http.Transport).TLSClientConfig
}

func (s *Server) AddCallWatcher(fn func(Call), paths ...string) {
	s.callWatchersLock.Lock()
	defer s.callWatchersLock.Unlock()

	s.callWatchers = append(s.callWatchers, newCallWatcher(fn, paths...))
}

// CreateUser adds an account which must pass the given confirmations to log in.
func (s *Server) CreateUser(name, password string, guards ...protocol.EAuthSessionGuardType) (uint64, error) {
	return s.b.createUser(name, password, guards)
}

// GetSharedSecret returns the authenticator secret device codes are generated from.
func (s *Server) GetSharedSecret(name string) (string, error) {
	u, err := s.b.getUser(name)
	if err != nil {
		return "", err
	}

	return u.sharedSecret, nil
}

// GetEmailCode returns the code last mailed to the account. Every credential login
// needing an email code mails a new one.
func (s *Server) GetEmailCode(name string) (string, error) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	u, ok := s.b.users[name]
	if !ok || u.emailCode == "" {
		return "", fmt.Errorf("no code mailed to %q", name)
	}

	return u.emailCode, nil
}

// GetGuardData returns the machine token issued after an email code login.
func (s *Server) GetGuardData(name string) (string, error) {
	u, err := s.b.getUser(name)
	if err != nil {
		return "", err
	}

	return u.guardData, nil
}

// ConfirmDevice approves every pending login of the account from the mobile app.
func (s *Server) ConfirmDevice(name string) int {
	return s.b.confirm(name, protocol.EAuthSessionGuardTypeDeviceConfirmation)
}

// ConfirmEmail follows the confirmation link mailed for every pending login of the account.
func (s *Server) ConfirmEmail(name string) int {
	return s.b.confirm(name, protocol.EAuthSessionGuardTypeEmailConfirmation)
}

// ScanQR marks the QR session as scanned without approving it.
func (s *Server) ScanQR(clientID uint64) error {
	return s.b.scanQR(clientID)
}

// ApproveQR approves the QR session as the given account.
func (s *Server) ApproveQR(clientID uint64, name string) error {
	return s.b.approveQR(clientID, name)
}

// RotateQR re-keys the QR session and returns the new client id.
func (s *Server) RotateQR(clientID uint64) (uint64, error) {
	return s.b.rotateQR(clientID)
}

// ExpireSession makes every further call on the session fail with EResultExpired.
func (s *Server) ExpireSession(clientID uint64) error {
	return s.b.expire(clientID)
}

func (s *Server) RevokeRefreshToken(refreshToken string) error {
	return s.b.revoke(refreshToken)
}

// SetRotateRefreshTokens makes renewals issue a new refresh token and revoke the old one.
func (s *Server) SetRotateRefreshTokens(rotate bool) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.rotate = rotate
}

// SetStaleKeys makes the next n credential logins fail as if the key had rotated.
func (s *Server) SetStaleKeys(n int) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.staleKeys = n
}

// SetMalformed makes the next n responses carry an undecodable body.
func (s *Server) SetMalformed(n int) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.malformed = n
}

func (s *Server) SetPollInterval(seconds float32) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.pollInterval = seconds
}

func (s *Server) SetTokenLife(access, refresh time.Duration) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.accessLife, s.b.refreshLife = access, refresh
}

// SetClockSkew shifts the server clock used for device codes and QueryTime.
func (s *Server) SetClockSkew(skew time.Duration) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.clockSkew = skew
}

func (s *Server) SetOffline(offline bool) {
	s.offline.Store(offline)
}

// SetPushEnabled controls whether new QR sessions are offered the push socket.
func (s *Server) SetPushEnabled(enabled bool) {
	s.pushEnabled.Store(enabled)
}

// SetPushRefused makes the push socket hang up on every subscriber.
func (s *Server) SetPushRefused(refused bool) {
	s.pushRefused.Store(refused)
}

// DropPushConnections closes every open push socket.
func (s *Server) DropPushConnections() {
	s.connsLock.Lock()
	defer s.connsLock.Unlock()

	for conn := range s.conns {
		_ = conn.Close()
	}
}

// GetPushSubscriptions returns how many push sockets have subscribed so far.
func (s *Server) GetPushSubscriptions() int {
	return int(s.pushSubscriptions.Load())
}

// GetPushConnections returns how many push sockets are open.
func (s *Server) GetPushConnections() int {
	s.connsLock.Lock()
	defer s.connsLock.Unlock()

	return len(s.conns)
}

func (s *Server) Close() {
	s.connsLock.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
	s.connsLock.Unlock()

	s.s.CloseClientConnections()
	s.s.Close()
}
