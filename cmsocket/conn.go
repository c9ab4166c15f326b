// Package cmsocket implements the persistent push socket that delivers
// auth session status updates.
package cmsocket

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
	"golang.org/x/net/websocket"
)

const defaultOrigin = "https://steamcommunity.com"

var log = logrus.WithField("pkg", "go-steam-session/cmsocket")

type update struct {
	res *protocol.PollAuthSessionStatusResponse
	err error
}

// Conn is one push socket connection. Updates are read with Next until it
// returns io.EOF, which means the socket is gone.
type Conn struct {
	ws *websocket.Conn

	updates chan update
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	writeLock       sync.Mutex
	jobID           atomic.Uint64
	clientSessionID atomic.Int32
}

// Option configures Dial.
type Option func(*websocket.Config)

// WithOrigin sets the Origin header sent in the handshake.
func WithOrigin(origin *url.URL) Option {
	return func(config *websocket.Config) {
		config.Origin = origin
	}
}

// WithTLSConfig sets the TLS configuration for wss endpoints.
func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(config *websocket.Config) {
		config.TlsConfig = tlsConfig
	}
}

// Dial opens a push socket to endpoint.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Conn, error) {
	config, err := websocket.NewConfig(endpoint, defaultOrigin)
	if err != nil {
		return nil, fmt.Errorf("push endpoint: %w", err)
	}

	for _, opt := range opts {
		opt(config)
	}

	ws, err := config.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial push socket: %w", err)
	}
	ws.PayloadType = websocket.BinaryFrame

	c := &Conn{
		ws:      ws,
		updates: make(chan update),
		done:    make(chan struct{}),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.read()
	}()

	log.WithField("url", endpoint).Debug("Push socket connected")

	return c, nil
}

// Subscribe asks for status updates of the session identified by req.
func (c *Conn) Subscribe(ctx context.Context, req *protocol.PollAuthSessionStatusRequest) error {
	f := &protocol.Frame{
		EMsg: protocol.EMsgServiceMethodCallFromClientNonAuthed,
		Header: protocol.Header{
			ClientSessionID: c.clientSessionID.Load(),
			JobIDSource:     c.jobID.Add(1),
			TargetJobName:   req.ServiceMethod().JobName(),
			EResult:         protocol.EResultOK,
		},
		Body: req.Marshal(),
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.ws.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}

	if err := websocket.Message.Send(c.ws, f.Marshal()); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

// Next returns the next status update. It returns io.EOF once the socket is closed,
// a *protocol.EResultError when the endpoint reports a failed result, and
// ErrTryAnotherCM when the endpoint turns the client away.
func (c *Conn) Next(ctx context.Context) (*protocol.PollAuthSessionStatusResponse, error) {
	select {
	case u, ok := <-c.updates:
		if !ok {
			return nil, io.EOF
		}
		return u.res, u.err

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the socket and waits for the reader to stop. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error

	c.once.Do(func() {
		close(c.done)
		err = c.ws.Close()
		c.wg.Wait()
	})

	return err
}

func (c *Conn) read() {
	defer close(c.updates)

	for {
		var b []byte

		if err := websocket.Message.Receive(c.ws, &b); err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Debug("Push socket read ended")
			}
			return
		}

		f, err := protocol.ParseFrame(b)
		if err != nil {
			if !c.emit(update{err: err}) {
				return
			}
			continue
		}

		if !c.handle(f) {
			return
		}
	}
}

// handle routes one frame and reports whether reading should continue.
func (c *Conn) handle(f *protocol.Frame) bool {
	if id := f.Header.ClientSessionID; id != 0 {
		c.clientSessionID.Store(id)
	}

	switch f.EMsg {
	case protocol.EMsgMulti:
		var multi protocol.Multi
		if err := multi.Unmarshal(f.Body); err != nil {
			return c.emit(update{err: err})
		}

		frames, err := multi.Frames()
		if err != nil {
			return c.emit(update{err: err})
		}

		for _, sub := range frames {
			if !c.handle(sub) {
				return false
			}
		}

		return true

	case protocol.EMsgServiceMethodResponse, protocol.EMsgServiceMethod:
		if f.EMsg == protocol.EMsgServiceMethod && f.Header.TargetJobName != protocol.MethodPollAuthSessionStatus.JobName() {
			log.WithField("job", f.Header.TargetJobName).Debug("Ignoring notification")
			return true
		}

		if f.Header.EResult != protocol.EResultOK {
			return c.emit(update{err: &protocol.EResultError{Result: f.Header.EResult, Message: f.Header.ErrorMessage}})
		}

		var res protocol.PollAuthSessionStatusResponse
		if err := res.Unmarshal(f.Body); err != nil {
			return c.emit(update{err: err})
		}

		return c.emit(update{res: &res})

	case protocol.EMsgClientLogOnResponse:
		c.emit(update{err: ErrTryAnotherCM})
		return false

	default:
		log.WithField("emsg", f.EMsg).Debug("Ignoring frame")
		return true
	}
}

func (c *Conn) emit(u update) bool {
	select {
	case c.updates <- u:
		return true

	case <-c.done:
		return false
	}
}
