package webapi

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultHostURL is the default host of the service API.
	DefaultHostURL = "https://api.steampowered.com"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type clientBuilder struct {
	hostURL          string
	transport        http.RoundTripper
	userAgent        string
	retryCount       int
	retryWaitTime    time.Duration
	malformedRetries int
	logger           resty.Logger
	debug            bool
}

func newClientBuilder() *clientBuilder {
	return &clientBuilder{
		hostURL:          DefaultHostURL,
		transport:        http.DefaultTransport,
		userAgent:        defaultUserAgent,
		retryCount:       3,
		retryWaitTime:    500 * time.Millisecond,
		malformedRetries: 1,
		logger:           log,
	}
}

// Option represents a type that can be used to configure the client.
type Option interface {
	config(*clientBuilder)
}

// WithHostURL sets the service API host.
func WithHostURL(hostURL string) Option {
	return &withHostURL{hostURL: hostURL}
}

type withHostURL struct {
	hostURL string
}

func (opt withHostURL) config(builder *clientBuilder) {
	builder.hostURL = opt.hostURL
}

// WithTransport sets the round tripper used for every call.
func WithTransport(transport http.RoundTripper) Option {
	return &withTransport{transport: transport}
}

type withTransport struct {
	transport http.RoundTripper
}

func (opt withTransport) config(builder *clientBuilder) {
	builder.transport = opt.transport
}

func WithUserAgent(userAgent string) Option {
	return &withUserAgent{userAgent: userAgent}
}

type withUserAgent struct {
	userAgent string
}

func (opt withUserAgent) config(builder *clientBuilder) {
	builder.userAgent = opt.userAgent
}

// WithRetryCount sets how many times a call is repeated after a network error,
// 429 or 5xx response.
func WithRetryCount(retryCount int) Option {
	return &withRetryCount{retryCount: retryCount}
}

type withRetryCount struct {
	retryCount int
}

func (opt withRetryCount) config(builder *clientBuilder) {
	builder.retryCount = opt.retryCount
}

// WithRetryWaitTime sets the initial wait between retries; it grows exponentially.
func WithRetryWaitTime(wait time.Duration) Option {
	return &withRetryWaitTime{wait: wait}
}

type withRetryWaitTime struct {
	wait time.Duration
}

func (opt withRetryWaitTime) config(builder *clientBuilder) {
	builder.retryWaitTime = opt.wait
}

// WithMalformedRetries sets how many times a call is repeated when its response body cannot be decoded.
func WithMalformedRetries(retries int) Option {
	return &withMalformedRetries{retries: retries}
}

type withMalformedRetries struct {
	retries int
}

func (opt withMalformedRetries) config(builder *clientBuilder) {
	builder.malformedRetries = opt.retries
}

// WithLogger sets the logger resty reports to.
func WithLogger(logger resty.Logger) Option {
	return &withLogger{logger: logger}
}

type withLogger struct {
	logger resty.Logger
}

func (opt withLogger) config(builder *clientBuilder) {
	builder.logger = opt.logger
}

// WithDebug makes resty log every request and response.
func WithDebug(debug bool) Option {
	return &withDebug{debug: debug}
}

type withDebug struct {
	debug bool
}

func (opt withDebug) config(builder *clientBuilder) {
	builder.debug = opt.debug
}
