package session

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/token"
	"github.com/vuquang23/go-steam-session/webapi"
)

const (
	defaultDeviceFriendlyName = "go-steam-session"
	defaultWebsiteID          = "Community"
	defaultInterval           = 5 * time.Second
)

type managerBuilder struct {
	api []webapi.Option

	platformType       protocol.EAuthTokenPlatformType
	deviceFriendlyName string
	machineID          []byte
	websiteID          string
	persistence        protocol.ESessionPersistence

	staleKeyRetries int
	minPollInterval time.Duration
	maxPollAttempts int
	maxPollFailures int
	deadline        time.Duration

	push           bool
	pushEndpoint   string
	pushReconnects int
	pushTLSConfig  *tls.Config

	cookieDomains []string
}

func newManagerBuilder() *managerBuilder {
	return &managerBuilder{
		platformType:       protocol.EAuthTokenPlatformTypeWebBrowser,
		deviceFriendlyName: defaultDeviceFriendlyName,
		websiteID:          defaultWebsiteID,
		persistence:        protocol.ESessionPersistencePersistent,

		staleKeyRetries: 1,
		minPollInterval: time.Second,
		maxPollAttempts: 120,
		maxPollFailures: 5,

		push:           true,
		pushReconnects: 1,

		cookieDomains: token.DefaultDomains,
	}
}

// Option represents a type that can be used to configure the manager.
type Option interface {
	config(*managerBuilder)
}

type optionFunc func(*managerBuilder)

func (f optionFunc) config(builder *managerBuilder) {
	f(builder)
}

// WithHostURL sets the service API host.
func WithHostURL(hostURL string) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithHostURL(hostURL))
	})
}

// WithTransport sets the round tripper used for service API calls.
func WithTransport(transport http.RoundTripper) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithTransport(transport))
	})
}

func WithUserAgent(userAgent string) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithUserAgent(userAgent))
	})
}

// WithRetryCount sets how many times a service call is repeated after a transport failure.
func WithRetryCount(retryCount int) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithRetryCount(retryCount))
	})
}

func WithRetryWaitTime(wait time.Duration) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithRetryWaitTime(wait))
	})
}

// WithMalformedRetries sets how many times a call is repeated when its response cannot be decoded.
func WithMalformedRetries(retries int) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithMalformedRetries(retries))
	})
}

// WithLogger sets the logger the HTTP layer reports to.
func WithLogger(logger resty.Logger) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithLogger(logger))
	})
}

func WithDebug(debug bool) Option {
	return optionFunc(func(b *managerBuilder) {
		b.api = append(b.api, webapi.WithDebug(debug))
	})
}

// WithPlatformType selects which kind of client the tokens are minted for.
func WithPlatformType(platformType protocol.EAuthTokenPlatformType) Option {
	return optionFunc(func(b *managerBuilder) {
		b.platformType = platformType
	})
}

func WithDeviceFriendlyName(name string) Option {
	return optionFunc(func(b *managerBuilder) {
		b.deviceFriendlyName = name
	})
}

// WithMachineID sets the machine identifier sent with the device details.
func WithMachineID(machineID []byte) Option {
	return optionFunc(func(b *managerBuilder) {
		b.machineID = machineID
	})
}

func WithWebsiteID(websiteID string) Option {
	return optionFunc(func(b *managerBuilder) {
		b.websiteID = websiteID
	})
}

// WithPersistence controls whether a long-lived refresh token is requested.
func WithPersistence(persistence protocol.ESessionPersistence) Option {
	return optionFunc(func(b *managerBuilder) {
		b.persistence = persistence
	})
}

// WithStaleKeyRetries sets how many times a credential login is retried with a
// fresh key after the provider reports the key stale.
func WithStaleKeyRetries(retries int) Option {
	return optionFunc(func(b *managerBuilder) {
		b.staleKeyRetries = retries
	})
}

// WithMinPollInterval sets the floor under the provider's poll interval.
func WithMinPollInterval(interval time.Duration) Option {
	return optionFunc(func(b *managerBuilder) {
		b.minPollInterval = interval
	})
}

// WithMaxPollAttempts bounds the session lifetime to interval times attempts,
// unless WithDeadline is given.
func WithMaxPollAttempts(attempts int) Option {
	return optionFunc(func(b *managerBuilder) {
		b.maxPollAttempts = attempts
	})
}

// WithMaxPollFailures sets how many consecutive transport failures end a session.
func WithMaxPollFailures(failures int) Option {
	return optionFunc(func(b *managerBuilder) {
		b.maxPollFailures = failures
	})
}

// WithDeadline sets a fixed session lifetime after which it expires.
func WithDeadline(deadline time.Duration) Option {
	return optionFunc(func(b *managerBuilder) {
		b.deadline = deadline
	})
}

// WithPushEndpoint overrides the push socket endpoint announced by the provider.
func WithPushEndpoint(endpoint string) Option {
	return optionFunc(func(b *managerBuilder) {
		b.pushEndpoint = endpoint
	})
}

// WithoutPush makes QR sessions poll instead of subscribing to push updates.
func WithoutPush() Option {
	return optionFunc(func(b *managerBuilder) {
		b.push = false
	})
}

// WithPushReconnects sets how many times a dropped push socket is redialed
// before the session falls back to polling.
func WithPushReconnects(reconnects int) Option {
	return optionFunc(func(b *managerBuilder) {
		b.pushReconnects = reconnects
	})
}

func WithPushTLSConfig(tlsConfig *tls.Config) Option {
	return optionFunc(func(b *managerBuilder) {
		b.pushTLSConfig = tlsConfig
	})
}

// WithCookieDomains sets the domains login cookies are derived for.
func WithCookieDomains(domains ...string) Option {
	return optionFunc(func(b *managerBuilder) {
		b.cookieDomains = domains
	})
}
