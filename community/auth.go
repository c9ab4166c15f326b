package community

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/session"
	"github.com/vuquang23/go-steam-session/totp"
)

var log = logrus.WithField("pkg", "go-steam-session/community")

// Client is a logged in web session: a cookie jar carrying the login cookies of
// every community domain.
type Client struct {
	client *http.Client
	opts   []session.Option

	mu        sync.Mutex
	manager   *session.Manager
	result    *session.Result
	sessionID string
	deviceID  string
}

// NewClient returns a client whose logins are driven with the given session options.
func NewClient(opts ...session.Option) (*Client, error) {
	cookies := []*http.Cookie{
		{Name: cookieLanguage, Value: "english"},
		{Name: cookieTimezone, Value: "0,0"},
	}
	httpClient := new(http.Client)
	err := SetCookies(httpClient, cookies)
	if err != nil {
		return nil, err
	}

	opts = append([]session.Option{session.WithUserAgent(defaultUserAgent)}, opts...)

	return &Client{client: httpClient, opts: opts}, nil
}

// SetProxy routes the web session and every later login through proxy.
func (c *Client) SetProxy(proxy string) error {
	proxyUrl, err := url.Parse(proxy)
	if err != nil {
		return err
	}

	transport := &http.Transport{Proxy: http.ProxyURL(proxyUrl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.client.Transport = transport
	c.opts = append(c.opts, session.WithTransport(transport))

	return nil
}

// HTTPClient returns the client carrying the session cookies.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// Login logs in with a password. Codes come from details, or from details.Code
// while the login waits; a wrong code is asked for again without restarting the
// login. Device and email confirmations are waited for until ctx ends.
func (c *Client) Login(ctx context.Context, details LoginDetails) error {
	if details.AccountName == "" || details.Password == "" {
		return ErrMissingDetails
	}

	deviceID := GenerateDeviceID(details.AccountName)
	manager := c.newManager(session.WithMachineID([]byte(deviceID)))

	s, err := manager.BeginWithCredentials(ctx, session.Credentials{
		AccountName: details.AccountName,
		Password:    []byte(details.Password),
		GuardData:   details.GuardData,
	})
	if err != nil {
		manager.Close()
		return err
	}
	defer s.Cancel()

	if err := c.confirm(ctx, manager, s, details); err != nil {
		manager.Close()
		return err
	}

	result, err := s.Wait(ctx)
	if err != nil {
		manager.Close()
		return err
	}

	return c.setSession(manager, result, deviceID)
}

// confirm submits the codes the session asks for. Device and email confirmations
// are given by the user elsewhere and only waited for.
func (c *Client) confirm(ctx context.Context, manager *session.Manager, s *session.Session, details LoginDetails) error {
	outstanding := s.Outstanding()

	if outstanding.Has(session.MethodGuardCode) {
		code, err := c.twoFactorCode(ctx, manager, details)
		if err != nil {
			return err
		}
		if err := c.submit(ctx, s, session.MethodGuardCode, code, details.Code, ErrRequiresTwoFactor); err != nil {
			return err
		}
	}

	if outstanding.Has(session.MethodEmailCode) {
		if err := c.submit(ctx, s, session.MethodEmailCode, details.EmailCode, details.Code, ErrRequiresEmailCode); err != nil {
			return err
		}
	}

	return nil
}

// submit answers one code confirmation. code is tried first; after that, and
// after every wrong code, prompt is asked for another while the session waits.
func (c *Client) submit(
	ctx context.Context,
	s *session.Session,
	method session.Method,
	code string,
	prompt CodePrompt,
	missing error,
) error {
	for {
		if code == "" {
			if prompt == nil {
				return missing
			}

			var err error
			if code, err = prompt(method); err != nil {
				return err
			}
			if code == "" {
				return missing
			}
		}

		err := s.SubmitCode(ctx, method, code)
		if err == nil {
			return nil
		}

		if !session.NeedsInput(err) || prompt == nil {
			return err
		}

		log.WithField("method", method).Warn("Code rejected, asking again")
		code = ""
	}
}

func (c *Client) twoFactorCode(ctx context.Context, manager *session.Manager, details LoginDetails) (string, error) {
	if details.TwoFactorCode != "" || details.SharedSecret == "" {
		return details.TwoFactorCode, nil
	}

	offset, err := totp.QueryTimeOffset(ctx, manager.API())
	if err != nil {
		log.WithError(err).Warn("Failed to query server time, using local clock")
		offset = 0
	}

	return totp.GenerateTotpCode(details.SharedSecret, time.Now().Add(offset))
}

// LoginWithQR logs in by QR code. show is called with every challenge URL the
// user has to scan, including rotated ones.
func (c *Client) LoginWithQR(ctx context.Context, show func(challengeURL string)) error {
	manager := c.newManager()

	s, err := manager.BeginWithQR(ctx)
	if err != nil {
		manager.Close()
		return err
	}
	defer s.Cancel()

	shown := s.ChallengeURL()
	show(shown)

	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			manager.Close()
			return ctx.Err()

		case <-s.Done():
			result, err := s.Wait(ctx)
			if err != nil {
				manager.Close()
				return err
			}
			return c.setSession(manager, result, "")

		case <-ticker.C:
			if challengeURL := s.ChallengeURL(); challengeURL != shown {
				shown = challengeURL
				show(shown)
			}
		}
	}
}

// Refresh renews the access token of the current login and replaces the login cookies.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	manager, result := c.manager, c.result
	c.mu.Unlock()

	if result == nil {
		return ErrNotLoggedIn
	}

	pair, err := manager.Refresh(ctx, result.Tokens.RefreshToken)
	if err != nil {
		return err
	}

	cookies, err := manager.Cookies(pair)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	renewed := *result
	renewed.Tokens = pair
	renewed.Cookies = cookies
	c.result = &renewed

	return SetCookies(c.client, cookies)
}

// Logout forgets the current login. Cookies already in the jar are left alone.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager != nil {
		c.manager.Close()
	}
	c.manager, c.result = nil, nil
}

func (c *Client) newManager(opts ...session.Option) *session.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()

	return session.New(append(append([]session.Option{}, c.opts...), opts...)...)
}

func (c *Client) setSession(manager *session.Manager, result *session.Result, deviceID string) error {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return err
	}

	cookies := append([]*http.Cookie{}, result.Cookies...)
	for _, cookie := range result.Cookies {
		cookies = append(cookies, &http.Cookie{
			Name:   cookieSessionID,
			Value:  url.QueryEscape(sessionID),
			Path:   "/",
			Domain: cookie.Domain,
		})
	}
	if err := SetCookies(c.client, cookies); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}

	if deviceID == "" {
		deviceID = GenerateDeviceID(result.AccountName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager != nil && c.manager != manager {
		c.manager.Close()
	}
	c.manager, c.result = manager, result
	c.sessionID, c.deviceID = sessionID, deviceID

	log.WithField("account", result.AccountName).Info("Logged in")

	return nil
}

func (c *Client) GetSteamID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return ""
	}
	return strconv.FormatUint(c.result.SteamID, 10)
}

func (c *Client) GetAccountName() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return ""
	}
	return c.result.AccountName
}

func (c *Client) GetDeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deviceID
}

func (c *Client) GetSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

func (c *Client) GetAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return ""
	}
	return c.result.Tokens.AccessToken
}

func (c *Client) GetRefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return ""
	}
	return c.result.Tokens.RefreshToken
}

// GetGuardData returns the machine token issued by the last login, if any.
func (c *Client) GetGuardData() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return ""
	}
	return c.result.GuardData
}

func (c *Client) GetCookies(u *url.URL) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(c.client.Jar.Cookies(u)))
	for _, cookie := range c.client.Jar.Cookies(u) {
		clone := *cookie
		cookies = append(cookies, &clone)
	}
	return cookies
}
