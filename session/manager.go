// Package session drives the provider's login handshake: it begins a credential or
// QR session, waits for the user's confirmations and finalizes the issued tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/awnumar/memguard"
	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/credential"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/token"
	"github.com/vuquang23/go-steam-session/webapi"
)

var log = logrus.WithField("pkg", "go-steam-session/session")

// Manager begins sessions. It is safe for concurrent use; sessions share nothing
// but the HTTP client.
type Manager struct {
	api       *webapi.Client
	encryptor *credential.Encryptor
	refresher *token.Refresher

	settings *managerBuilder
}

func New(opts ...Option) *Manager {
	builder := newManagerBuilder()

	for _, opt := range opts {
		opt.config(builder)
	}

	return builder.build()
}

func (builder *managerBuilder) build() *Manager {
	api := webapi.New(builder.api...)

	return &Manager{
		api:       api,
		encryptor: credential.NewEncryptor(api),
		refresher: token.NewRefresher(api),
		settings:  builder,
	}
}

// API returns the client sessions call the provider with.
func (m *Manager) API() *webapi.Client {
	return m.api
}

// Close releases idle connections. Sessions still running are not affected.
func (m *Manager) Close() {
	m.api.Close()
}

// BeginWithCredentials starts a credential login. The returned session is already
// Polling, or Confirmed if the provider asks for no confirmation at all.
func (m *Manager) BeginWithCredentials(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.AccountName == "" || len(creds.Password) == 0 {
		memguard.WipeBytes(creds.Password)
		return nil, ErrMissingCredentials
	}

	password := memguard.NewEnclave(creds.Password)

	s := m.newSession(KindCredentials)
	s.apply(update{to: StatusAwaitingCredentialSubmission})

	res, err := m.beginWithCredentials(ctx, creds.AccountName, password, creds.GuardData)
	if err != nil {
		s.abort(err)
		return nil, err
	}

	if res.ExtendedErrorMessage != "" {
		s.log.WithField("message", res.ExtendedErrorMessage).Warn("Provider attached a message to the session")
	}

	s.begin(beginning{
		clientID:    res.ClientID,
		requestID:   res.RequestID,
		steamID:     res.SteamID,
		accountName: creds.AccountName,
		interval:    res.Interval,
		outstanding: methodsFor(KindCredentials, res.AllowedConfirmations),
	})

	return s, nil
}

func (m *Manager) beginWithCredentials(
	ctx context.Context,
	accountName string,
	password *memguard.Enclave,
	guardData string,
) (*protocol.BeginAuthSessionViaCredentialsResponse, error) {
	for attempt := 0; ; attempt++ {
		sealed, err := m.seal(ctx, accountName, password)
		if err != nil {
			return nil, err
		}

		req := &protocol.BeginAuthSessionViaCredentialsRequest{
			DeviceFriendlyName:  m.settings.deviceFriendlyName,
			AccountName:         accountName,
			EncryptedPassword:   sealed.Ciphertext,
			EncryptionTimestamp: sealed.Timestamp,
			RememberLogin:       m.settings.persistence == protocol.ESessionPersistencePersistent,
			PlatformType:        m.settings.platformType,
			Persistence:         m.settings.persistence,
			WebsiteID:           m.settings.websiteID,
			DeviceDetails:       m.deviceDetails(),
			GuardData:           guardData,
		}

		var res protocol.BeginAuthSessionViaCredentialsResponse

		err = m.api.Call(ctx, req, &res)
		if err == nil {
			return &res, nil
		}

		err = classifyBegin(err)

		if !errors.Is(err, ErrStaleKey) || attempt >= m.settings.staleKeyRetries {
			return nil, err
		}

		log.WithError(err).WithField("attempt", attempt+1).Warn("RSA key went stale, retrying with a fresh one")
	}
}

func (m *Manager) seal(ctx context.Context, accountName string, password *memguard.Enclave) (*credential.Encrypted, error) {
	buf, err := password.Open()
	if err != nil {
		return nil, fmt.Errorf("open password enclave: %w", err)
	}
	defer buf.Destroy()

	return m.encryptor.Seal(ctx, accountName, buf.Bytes())
}

// BeginWithQR starts a QR login. Show ChallengeURL to the user as a QR code;
// it may change while the session is Polling.
func (m *Manager) BeginWithQR(ctx context.Context) (*Session, error) {
	s := m.newSession(KindQR)

	req := &protocol.BeginAuthSessionViaQRRequest{
		DeviceFriendlyName: m.settings.deviceFriendlyName,
		PlatformType:       m.settings.platformType,
		DeviceDetails:      m.deviceDetails(),
		WebsiteID:          m.settings.websiteID,
	}

	var res protocol.BeginAuthSessionViaQRResponse

	if err := m.api.Call(ctx, req, &res); err != nil {
		err = classifyBegin(err)
		s.abort(err)
		return nil, err
	}

	s.begin(beginning{
		clientID:     res.ClientID,
		requestID:    res.RequestID,
		interval:     res.Interval,
		challengeURL: res.ChallengeURL,
		pushURL:      res.PushURL,
		outstanding:  NewMethodSet(MethodQrScanApproval),
	})

	return s, nil
}

// Refresh renews the access token of an established session.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	return m.refresher.Refresh(ctx, refreshToken)
}

// Cookies derives the web login cookies for an access token, for the configured domains.
func (m *Manager) Cookies(pair token.Pair) ([]*http.Cookie, error) {
	return token.Cookies(pair, m.settings.cookieDomains)
}

func (m *Manager) deviceDetails() *protocol.DeviceDetails {
	return &protocol.DeviceDetails{
		DeviceFriendlyName: m.settings.deviceFriendlyName,
		PlatformType:       m.settings.platformType,
		MachineID:          m.settings.machineID,
	}
}
