// Package webapi calls the provider's service API over HTTP request/response.
package webapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
)

const (
	inputField         = "input_protobuf_encoded"
	headerEResult      = "x-eresult"
	headerErrorMessage = "x-error_message"
)

var log = logrus.WithField("pkg", "go-steam-session/webapi")

// Client issues service method calls. It is safe for concurrent use.
type Client struct {
	rc *resty.Client

	hostURL          string
	malformedRetries int
}

func New(opts ...Option) *Client {
	builder := newClientBuilder()

	for _, opt := range opts {
		opt.config(builder)
	}

	return builder.build()
}

func (builder *clientBuilder) build() *Client {
	c := &Client{
		rc: resty.New(),

		hostURL:          builder.hostURL,
		malformedRetries: builder.malformedRetries,
	}

	c.rc.SetBaseURL(builder.hostURL)
	c.rc.SetTransport(builder.transport)
	c.rc.SetHeader("User-Agent", builder.userAgent)
	c.rc.SetLogger(builder.logger)
	c.rc.SetDebug(builder.debug)

	// Bodies carry encrypted passwords and tokens.
	c.rc.OnRequestLog(func(l *resty.RequestLog) error {
		l.Body = "<redacted>"
		return nil
	})
	c.rc.OnResponseLog(func(l *resty.ResponseLog) error {
		l.Body = "<redacted>"
		return nil
	})

	c.rc.SetRetryCount(builder.retryCount)
	c.rc.SetRetryWaitTime(builder.retryWaitTime)
	c.rc.SetRetryMaxWaitTime(10 * time.Second)
	c.rc.AddRetryCondition(catchRetryableStatus)

	return c
}

// HostURL returns the service API host calls are made against.
func (c *Client) HostURL() string {
	return c.hostURL
}

// Call sends req to its service method and decodes the reply into res.
//
// A non-OK result from the provider is returned as *protocol.EResultError.
// A body that fails to decode is requested again up to the configured number of times,
// after which the *protocol.CodecError is returned.
func (c *Client) Call(ctx context.Context, req protocol.Request, res protocol.Message) error {
	method := req.ServiceMethod()
	input := base64.StdEncoding.EncodeToString(req.Marshal())

	for attempt := 0; ; attempt++ {
		err := c.call(ctx, method, input, res)
		if err == nil || !errors.Is(err, protocol.ErrMalformed) || attempt >= c.malformedRetries {
			return err
		}

		log.WithFields(logrus.Fields{
			"method":  method.String(),
			"attempt": attempt + 1,
		}).WithError(err).Warn("Malformed response, retrying")
	}
}

func (c *Client) call(ctx context.Context, method protocol.ServiceMethod, input string, res protocol.Message) error {
	r := c.rc.R().SetContext(ctx)

	if method.HTTPMethod == http.MethodGet {
		r.SetQueryParam(inputField, input)
	} else {
		r.SetFormData(map[string]string{inputField: input})
	}

	resp, err := r.Execute(method.HTTPMethod, method.Path())
	if err != nil {
		return fmt.Errorf("%v: %w", method, err)
	}

	result := protocol.EResultOK

	if raw := resp.Header().Get(headerEResult); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("%v: %w", method, &protocol.CodecError{Message: headerEResult, Err: err})
		}
		result = protocol.EResult(v)
	} else if resp.IsError() {
		return fmt.Errorf("%v: %v: %w", method, resp.Status(), ErrUnexpectedStatus)
	}

	if result != protocol.EResultOK {
		return &protocol.EResultError{Result: result, Message: resp.Header().Get(headerErrorMessage)}
	}

	if err := res.Unmarshal(resp.Body()); err != nil {
		return fmt.Errorf("%v: %w", method, err)
	}

	return nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.rc.GetClient().CloseIdleConnections()
}

func catchRetryableStatus(res *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if res == nil {
		return false
	}

	return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= http.StatusInternalServerError
}
