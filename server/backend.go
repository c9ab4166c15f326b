package server

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/token"
	"github.com/vuquang23/go-steam-session/totp"
)

const firstSteamID = 76561197960265728

var rsaKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
})

type user struct {
	name         string
	password     string
	steamID      uint64
	guards       []protocol.EAuthSessionGuardType
	sharedSecret string
	guardData    string

	// emailCode is the last code mailed to the account.
	emailCode string
}

type authSession struct {
	clientID     uint64
	requestID    []byte
	user         *user
	qr           bool
	challengeURL string
	remaining    map[protocol.EAuthSessionGuardType]bool
	emailCode    string
	usedEmail    bool
	scanned      bool
	expired      bool

	refreshToken string
	accessToken  string
}

// backend holds every account and session. All methods take the lock.
type backend struct {
	lock sync.Mutex

	key          *rsa.PrivateKey
	keyTimestamp uint64
	signingKey   []byte

	users    map[string]*user
	sessions map[uint64]*authSession
	revoked  map[string]bool

	nextSteamID  uint64
	nextClientID uint64

	pollInterval float32
	accessLife   time.Duration
	refreshLife  time.Duration
	rotate       bool
	clockSkew    time.Duration

	staleKeys int
	malformed int

	changed chan struct{}
}

func newBackend(pollInterval float32, accessLife, refreshLife time.Duration) *backend {
	key, err := rsaKey()
	if err != nil {
		panic(err)
	}

	return &backend{
		key:          key,
		keyTimestamp: uint64(time.Now().UnixMicro()),
		signingKey:   []byte(uuid.NewString()),
		users:        make(map[string]*user),
		sessions:     make(map[uint64]*authSession),
		revoked:      make(map[string]bool),
		nextSteamID:  firstSteamID + 1,
		nextClientID: 1,
		pollInterval: pollInterval,
		accessLife:   accessLife,
		refreshLife:  refreshLife,
		changed:      make(chan struct{}),
	}
}

// changes returns a channel closed at the next state change.
func (b *backend) changes() <-chan struct{} {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.changed
}

func (b *backend) broadcast() {
	close(b.changed)
	b.changed = make(chan struct{})
}

// takeMalformed reports whether the next response should be corrupted.
func (b *backend) takeMalformed() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.malformed == 0 {
		return false
	}

	b.malformed--

	return true
}

func (b *backend) createUser(name, password string, guards []protocol.EAuthSessionGuardType) (uint64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if _, ok := b.users[name]; ok {
		return 0, fmt.Errorf("user %q already exists", name)
	}

	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return 0, err
	}

	u := &user{
		name:         name,
		password:     password,
		steamID:      b.nextSteamID,
		guards:       guards,
		sharedSecret: base64.StdEncoding.EncodeToString(secret),
		guardData:    uuid.NewString(),
	}

	b.users[name] = u
	b.nextSteamID++

	return u.steamID, nil
}

func (b *backend) getUser(name string) (*user, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	u, ok := b.users[name]
	if !ok {
		return nil, fmt.Errorf("no user %q", name)
	}

	return u, nil
}

func (b *backend) getRSAKey(*protocol.GetPasswordRSAPublicKeyRequest) (*protocol.GetPasswordRSAPublicKeyResponse, protocol.EResult) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return &protocol.GetPasswordRSAPublicKeyResponse{
		PublicKeyMod: b.key.N.Text(16),
		PublicKeyExp: big.NewInt(int64(b.key.E)).Text(16),
		Timestamp:    b.keyTimestamp,
	}, protocol.EResultOK
}

func (b *backend) beginCredentials(req *protocol.BeginAuthSessionViaCredentialsRequest) (*protocol.BeginAuthSessionViaCredentialsResponse, protocol.EResult) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.staleKeys > 0 {
		b.staleKeys--
		b.keyTimestamp++
		return nil, protocol.EResultExpired
	}

	if req.EncryptionTimestamp != b.keyTimestamp {
		return nil, protocol.EResultExpired
	}

	u, ok := b.users[req.AccountName]
	if !ok {
		return nil, protocol.EResultInvalidPassword
	}

	ciphertext, err := base64.StdEncoding.DecodeString(req.EncryptedPassword)
	if err != nil {
		return nil, protocol.EResultInvalidParam
	}

	password, err := rsa.DecryptPKCS1v15(rand.Reader, b.key, ciphertext)
	if err != nil || string(password) != u.password {
		return nil, protocol.EResultInvalidPassword
	}

	sess := b.newSession()
	sess.user = u

	var allowed []protocol.AllowedConfirmation

	for _, guard := range u.guards {
		if guard == protocol.EAuthSessionGuardTypeEmailCode && req.GuardData != "" && req.GuardData == u.guardData {
			continue
		}

		if guard == protocol.EAuthSessionGuardTypeEmailCode {
			code, err := newEmailCode()
			if err != nil {
				return nil, protocol.EResultFail
			}
			sess.emailCode, u.emailCode = code, code
		}

		sess.remaining[guard] = true
		allowed = append(allowed, protocol.AllowedConfirmation{ConfirmationType: guard})
	}

	if len(allowed) == 0 {
		allowed = []protocol.AllowedConfirmation{{ConfirmationType: protocol.EAuthSessionGuardTypeNone}}
	}

	return &protocol.BeginAuthSessionViaCredentialsResponse{
		ClientID:             sess.clientID,
		RequestID:            sess.requestID,
		Interval:             b.pollInterval,
		AllowedConfirmations: allowed,
		SteamID:              u.steamID,
	}, protocol.EResultOK
}

func (b *backend) beginQR(pushURL string) (*protocol.BeginAuthSessionViaQRResponse, protocol.EResult) {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess := b.newSession()
	sess.qr = true
	sess.challengeURL = challengeURL(sess.clientID)
	sess.remaining[protocol.EAuthSessionGuardTypeDeviceConfirmation] = true

	return &protocol.BeginAuthSessionViaQRResponse{
		ClientID:     sess.clientID,
		ChallengeURL: sess.challengeURL,
		RequestID:    sess.requestID,
		Interval:     b.pollInterval,
		AllowedConfirmations: []protocol.AllowedConfirmation{
			{ConfirmationType: protocol.EAuthSessionGuardTypeDeviceConfirmation},
		},
		Version: 1,
		PushURL: pushURL,
	}, protocol.EResultOK
}

func (b *backend) newSession() *authSession {
	sess := &authSession{
		clientID:  b.nextClientID,
		requestID: []byte(uuid.NewString()),
		remaining: make(map[protocol.EAuthSessionGuardType]bool),
	}

	b.sessions[sess.clientID] = sess
	b.nextClientID++

	return sess
}

func challengeURL(clientID uint64) string {
	return fmt.Sprintf("https://s.team/q/1/%d", clientID)
}

func (b *backend) poll(req *protocol.PollAuthSessionStatusRequest) (*protocol.PollAuthSessionStatusResponse, protocol.EResult) {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess, ok := b.sessions[req.ClientID]
	if !ok || string(sess.requestID) != string(req.RequestID) {
		return nil, protocol.EResultFileNotFound
	}

	if sess.expired {
		return nil, protocol.EResultExpired
	}

	res := &protocol.PollAuthSessionStatusResponse{HadRemoteInteraction: sess.scanned}

	if sess.clientID != req.ClientID {
		res.NewClientID = sess.clientID
		res.NewChallengeURL = sess.challengeURL
	}

	if len(sess.remaining) > 0 {
		for guard := range sess.remaining {
			res.RemainingConfirmations = append(res.RemainingConfirmations, protocol.AllowedConfirmation{ConfirmationType: guard})
		}
		return res, protocol.EResultOK
	}

	if sess.refreshToken == "" {
		refresh, err := b.sign(sess.user.steamID, b.refreshLife, token.AudienceWeb, token.AudienceRenew, token.AudienceDerive)
		if err != nil {
			return nil, protocol.EResultFail
		}

		access, err := b.sign(sess.user.steamID, b.accessLife, token.AudienceWeb)
		if err != nil {
			return nil, protocol.EResultFail
		}

		sess.refreshToken, sess.accessToken = refresh, access
	}

	res.RefreshToken = sess.refreshToken
	res.AccessToken = sess.accessToken
	res.AccountName = sess.user.name

	if sess.usedEmail {
		res.NewGuardData = sess.user.guardData
	}

	return res, protocol.EResultOK
}

func (b *backend) submitCode(req *protocol.UpdateAuthSessionWithSteamGuardCodeRequest) protocol.EResult {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess, ok := b.sessions[req.ClientID]
	if !ok || sess.user == nil || sess.user.steamID != req.SteamID {
		return protocol.EResultFileNotFound
	}

	if sess.expired {
		return protocol.EResultExpired
	}

	if !sess.remaining[req.CodeType] {
		if hasGuard(sess.user.guards, req.CodeType) {
			return protocol.EResultDuplicateRequest
		}
		return protocol.EResultInvalidParam
	}

	switch req.CodeType {
	case protocol.EAuthSessionGuardTypeDeviceCode:
		if !b.validDeviceCode(sess.user, req.Code) {
			return protocol.EResultTwoFactorCodeMismatch
		}

	case protocol.EAuthSessionGuardTypeEmailCode:
		if req.Code != sess.emailCode {
			return protocol.EResultInvalidLoginAuthCode
		}
		sess.usedEmail = true

	default:
		return protocol.EResultInvalidParam
	}

	delete(sess.remaining, req.CodeType)
	b.broadcast()

	return protocol.EResultOK
}

// newEmailCode mints the code mailed for one session; every login gets a new one.
func newEmailCode() (string, error) {
	const alphabet = "23456789BCDFGHJKMNPQRTVWXY"

	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}

	return string(b), nil
}

// validDeviceCode accepts the code of the current and the previous window.
func (b *backend) validDeviceCode(u *user, code string) bool {
	now := time.Now().Add(b.clockSkew)

	for _, at := range []time.Time{now, now.Add(-30 * time.Second)} {
		want, err := totp.GenerateTotpCode(u.sharedSecret, at)
		if err == nil && want == code {
			return true
		}
	}

	return false
}

func hasGuard(guards []protocol.EAuthSessionGuardType, guard protocol.EAuthSessionGuardType) bool {
	for _, g := range guards {
		if g == guard {
			return true
		}
	}
	return false
}

// confirm satisfies guard on every open session of name.
func (b *backend) confirm(name string, guard protocol.EAuthSessionGuardType) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	var n int

	for _, sess := range b.sessions {
		if sess.user != nil && sess.user.name == name && sess.remaining[guard] {
			delete(sess.remaining, guard)
			n++
		}
	}

	if n > 0 {
		b.broadcast()
	}

	return n
}

func (b *backend) scanQR(clientID uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess, ok := b.sessions[clientID]
	if !ok || !sess.qr {
		return fmt.Errorf("no qr session %d", clientID)
	}

	sess.scanned = true
	b.broadcast()

	return nil
}

func (b *backend) approveQR(clientID uint64, name string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess, ok := b.sessions[clientID]
	if !ok || !sess.qr {
		return fmt.Errorf("no qr session %d", clientID)
	}

	u, ok := b.users[name]
	if !ok {
		return fmt.Errorf("no user %q", name)
	}

	sess.user = u
	sess.scanned = true
	delete(sess.remaining, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	b.broadcast()

	return nil
}

// rotateQR re-keys a QR session. The old client id keeps resolving so the next
// poll can report the new one.
func (b *backend) rotateQR(clientID uint64) (uint64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess, ok := b.sessions[clientID]
	if !ok || !sess.qr {
		return 0, fmt.Errorf("no qr session %d", clientID)
	}

	sess.clientID = b.nextClientID
	sess.challengeURL = challengeURL(sess.clientID)
	b.sessions[sess.clientID] = sess
	b.nextClientID++
	b.broadcast()

	return sess.clientID, nil
}

func (b *backend) expire(clientID uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	sess, ok := b.sessions[clientID]
	if !ok {
		return fmt.Errorf("no session %d", clientID)
	}

	sess.expired = true
	b.broadcast()

	return nil
}

func (b *backend) generateAccessToken(req *protocol.GenerateAccessTokenForAppRequest) (*protocol.GenerateAccessTokenForAppResponse, protocol.EResult) {
	b.lock.Lock()
	defer b.lock.Unlock()

	claims, err := b.verify(req.RefreshToken)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, protocol.EResultExpired
	} else if err != nil {
		return nil, protocol.EResultAccessDenied
	}

	if b.revoked[claims.ID] {
		return nil, protocol.EResultRevoked
	}

	steamID, err := claims.SteamID()
	if err != nil || steamID != req.SteamID {
		return nil, protocol.EResultAccessDenied
	}

	access, err := b.sign(steamID, b.accessLife, token.AudienceWeb)
	if err != nil {
		return nil, protocol.EResultFail
	}

	res := &protocol.GenerateAccessTokenForAppResponse{AccessToken: access}

	if b.rotate && req.RenewalType == protocol.ETokenRenewalTypeAllow {
		refresh, err := b.sign(steamID, b.refreshLife, token.AudienceWeb, token.AudienceRenew, token.AudienceDerive)
		if err != nil {
			return nil, protocol.EResultFail
		}

		b.revoked[claims.ID] = true
		res.RefreshToken = refresh
	}

	return res, protocol.EResultOK
}

func (b *backend) revoke(refreshToken string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	claims, err := token.Parse(refreshToken)
	if err != nil {
		return err
	}

	b.revoked[claims.ID] = true

	return nil
}

func (b *backend) queryTime(req *protocol.QueryTimeRequest) (*protocol.QueryTimeResponse, protocol.EResult) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return &protocol.QueryTimeResponse{ServerTime: uint64(time.Now().Add(b.clockSkew).Unix())}, protocol.EResultOK
}

func (b *backend) sign(steamID uint64, life time.Duration, aud ...string) (string, error) {
	now := time.Now()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "steam",
			Subject:   strconv.FormatUint(steamID, 10),
			Audience:  aud,
			ExpiresAt: jwt.NewNumericDate(now.Add(life)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		OAT: now.Unix(),
		Per: 1,
	}).SignedString(b.signingKey)
}

func (b *backend) verify(tok string) (*token.Claims, error) {
	var claims token.Claims

	if _, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return b.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		return nil, err
	}

	return &claims, nil
}
