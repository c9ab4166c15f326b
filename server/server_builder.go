package server

import (
	"io"
	"net/http/httptest"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

type serverBuilder struct {
	withTLS      bool
	logger       io.Writer
	pollInterval float32
	accessLife   time.Duration
	refreshLife  time.Duration
}

func newServerBuilder() *serverBuilder {
	var logger io.Writer

	if os.Getenv("GO_STEAM_SESSION_SERVER_LOGGER_ENABLED") != "" {
		logger = gin.DefaultWriter
	} else {
		logger = io.Discard
	}

	return &serverBuilder{
		logger:       logger,
		pollInterval: 0.05,
		accessLife:   time.Hour,
		refreshLife:  24 * time.Hour,
	}
}

func (builder *serverBuilder) build() *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		r:     gin.New(),
		b:     newBackend(builder.pollInterval, builder.accessLife, builder.refreshLife),
		conns: make(map[*websocket.Conn]struct{}),
	}

	s.pushEnabled.Store(true)

	if builder.withTLS {
		s.s = httptest.NewTLSServer(s.r)
	} else {
		s.s = httptest.NewServer(s.r)
	}

	s.r.Use(
		gin.LoggerWithConfig(gin.LoggerConfig{Output: builder.logger}),
		gin.Recovery(),
		s.logCalls(),
		s.handleOffline(),
	)

	initRouter(s)

	return s
}

// Option represents a type that can be used to configure the server.
type Option interface {
	config(*serverBuilder)
}

// WithTLS controls whether the server should serve over TLS.
func WithTLS(tls bool) Option {
	return &withTLS{
		withTLS: tls,
	}
}

type withTLS struct {
	withTLS bool
}

func (opt withTLS) config(builder *serverBuilder) {
	builder.withTLS = opt.withTLS
}

// WithLogger sets the writer gin logs requests to.
func WithLogger(logger io.Writer) Option {
	return &withLogger{
		logger: logger,
	}
}

type withLogger struct {
	logger io.Writer
}

func (opt withLogger) config(builder *serverBuilder) {
	builder.logger = opt.logger
}

// WithPollInterval sets the poll interval, in seconds, announced to new sessions.
func WithPollInterval(seconds float32) Option {
	return &withPollInterval{
		seconds: seconds,
	}
}

type withPollInterval struct {
	seconds float32
}

func (opt withPollInterval) config(builder *serverBuilder) {
	builder.pollInterval = opt.seconds
}

// WithTokenLife sets how long issued access and refresh tokens stay valid.
func WithTokenLife(access, refresh time.Duration) Option {
	return &withTokenLife{
		access:  access,
		refresh: refresh,
	}
}

type withTokenLife struct {
	access  time.Duration
	refresh time.Duration
}

func (opt withTokenLife) config(builder *serverBuilder) {
	builder.accessLife = opt.access
	builder.refreshLife = opt.refresh
}
