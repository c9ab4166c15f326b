package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vuquang23/go-steam-session/protocol"
	"golang.org/x/net/websocket"
)

const inputField = "input_protobuf_encoded"

// malformedBody claims a five byte field but carries one.
var malformedBody = []byte{0x0a, 0x05, 'x'}

func initRouter(s *Server) {
	s.r.GET(protocol.MethodGetPasswordRSAPublicKey.Path(), s.handleGetPasswordRSAPublicKey())
	s.r.POST(protocol.MethodBeginAuthSessionViaCredentials.Path(), s.handleBeginAuthSessionViaCredentials())
	s.r.POST(protocol.MethodBeginAuthSessionViaQR.Path(), s.handleBeginAuthSessionViaQR())
	s.r.POST(protocol.MethodPollAuthSessionStatus.Path(), s.handlePollAuthSessionStatus())
	s.r.POST(protocol.MethodUpdateAuthSessionWithSteamGuardCode.Path(), s.handleUpdateAuthSessionWithSteamGuardCode())
	s.r.POST(protocol.MethodGenerateAccessTokenForApp.Path(), s.handleGenerateAccessTokenForApp())
	s.r.POST(protocol.MethodQueryTime.Path(), s.handleQueryTime())

	s.r.GET("/cmsocket/", gin.WrapH(websocket.Handler(s.handlePush)))
}

func (s *Server) handleGetPasswordRSAPublicKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.GetPasswordRSAPublicKeyRequest
		if !readInput(c, &req) {
			return
		}

		res, result := s.b.getRSAKey(&req)
		s.writeResult(c, res, result)
	}
}

func (s *Server) handleBeginAuthSessionViaCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.BeginAuthSessionViaCredentialsRequest
		if !readInput(c, &req) {
			return
		}

		res, result := s.b.beginCredentials(&req)
		s.writeResult(c, res, result)
	}
}

func (s *Server) handleBeginAuthSessionViaQR() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.BeginAuthSessionViaQRRequest
		if !readInput(c, &req) {
			return
		}

		var pushURL string
		if s.pushEnabled.Load() {
			pushURL = s.GetPushURL()
		}

		res, result := s.b.beginQR(pushURL)
		s.writeResult(c, res, result)
	}
}

func (s *Server) handlePollAuthSessionStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.PollAuthSessionStatusRequest
		if !readInput(c, &req) {
			return
		}

		res, result := s.b.poll(&req)
		s.writeResult(c, res, result)
	}
}

func (s *Server) handleUpdateAuthSessionWithSteamGuardCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.UpdateAuthSessionWithSteamGuardCodeRequest
		if !readInput(c, &req) {
			return
		}

		s.writeResult(c, &protocol.UpdateAuthSessionWithSteamGuardCodeResponse{}, s.b.submitCode(&req))
	}
}

func (s *Server) handleGenerateAccessTokenForApp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.GenerateAccessTokenForAppRequest
		if !readInput(c, &req) {
			return
		}

		res, result := s.b.generateAccessToken(&req)
		s.writeResult(c, res, result)
	}
}

func (s *Server) handleQueryTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.QueryTimeRequest
		if !readInput(c, &req) {
			return
		}

		res, result := s.b.queryTime(&req)
		s.writeResult(c, res, result)
	}
}

func readInput(c *gin.Context, req protocol.Message) bool {
	var raw string

	if c.Request.Method == http.MethodGet {
		raw = c.Query(inputField)
	} else {
		raw = c.PostForm(inputField)
	}

	b, err := base64.StdEncoding.DecodeString(raw)
	if err == nil {
		err = req.Unmarshal(b)
	}

	if err != nil {
		c.Header("x-eresult", strconv.Itoa(int(protocol.EResultInvalidParam)))
		c.Header("x-error_message", err.Error())
		c.Status(http.StatusBadRequest)
		return false
	}

	return true
}

func (s *Server) writeResult(c *gin.Context, res protocol.Message, result protocol.EResult) {
	c.Header("x-eresult", strconv.Itoa(int(result)))

	if result != protocol.EResultOK {
		c.Header("x-error_message", result.String())
		c.Status(http.StatusOK)
		return
	}

	body := res.Marshal()
	if s.b.takeMalformed() {
		body = malformedBody
	}

	c.Data(http.StatusOK, "application/octet-stream", body)
}

func (s *Server) logCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := io.ReadAll(c.Request.Body)
		if err != nil {
			panic(err)
		} else {
			c.Request.Body = io.NopCloser(bytes.NewReader(req))
		}

		res, err := newBodyWriter(c.Writer)
		if err != nil {
			panic(err)
		} else {
			c.Writer = res
		}

		c.Next()

		s.callWatchersLock.RLock()
		defer s.callWatchersLock.RUnlock()

		for _, call := range s.callWatchers {
			if call.isWatching(c.Request.URL.Path) {
				call.publish(Call{
					URL:    c.Request.URL,
					Method: c.Request.Method,
					Status: c.Writer.Status(),

					RequestHeader: c.Request.Header,
					RequestBody:   req,

					ResponseHeader: c.Writer.Header(),
					ResponseBody:   res.bytes(),
				})
			}
		}
	}
}

func (s *Server) handleOffline() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.offline.Load() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
	}
}

type bodyWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func newBodyWriter(w gin.ResponseWriter) (*bodyWriter, error) {
	if w == nil {
		return nil, errors.New("response writer is nil")
	}

	return &bodyWriter{
		ResponseWriter: w,

		buf: &bytes.Buffer{},
	}, nil
}

func (w bodyWriter) Write(b []byte) (int, error) {
	if n, err := w.buf.Write(b); err != nil {
		return n, err
	}

	return w.ResponseWriter.Write(b)
}

func (w bodyWriter) bytes() []byte {
	return w.buf.Bytes()
}
