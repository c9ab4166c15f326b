package cmsocket_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuquang23/go-steam-session/cmsocket"
	"github.com/vuquang23/go-steam-session/protocol"
	"go.uber.org/goleak"
	"golang.org/x/net/websocket"
)

func newEndpoint(t *testing.T, handler func(ws *websocket.Conn)) string {
	t.Helper()

	ts := httptest.NewServer(websocket.Handler(handler))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func readSubscription(t *testing.T, ws *websocket.Conn) *protocol.Frame {
	var b []byte
	if !assert.NoError(t, websocket.Message.Receive(ws, &b)) {
		return nil
	}

	f, err := protocol.ParseFrame(b)
	if !assert.NoError(t, err) {
		return nil
	}

	assert.Equal(t, protocol.EMsgServiceMethodCallFromClientNonAuthed, f.EMsg)
	assert.Equal(t, "Authentication.PollAuthSessionStatus#1", f.Header.TargetJobName)

	return f
}

func send(t *testing.T, ws *websocket.Conn, f *protocol.Frame) {
	assert.NoError(t, websocket.Message.Send(ws, f.Marshal()))
}

func reply(jobID uint64, res *protocol.PollAuthSessionStatusResponse) *protocol.Frame {
	return &protocol.Frame{
		EMsg:   protocol.EMsgServiceMethodResponse,
		Header: protocol.Header{JobIDTarget: jobID, ClientSessionID: 77, EResult: protocol.EResultOK},
		Body:   res.Marshal(),
	}
}

func notify(res *protocol.PollAuthSessionStatusResponse) *protocol.Frame {
	return &protocol.Frame{
		EMsg: protocol.EMsgServiceMethod,
		Header: protocol.Header{
			TargetJobName: protocol.MethodPollAuthSessionStatus.JobName(),
			EResult:       protocol.EResultOK,
		},
		Body: res.Marshal(),
	}
}

func TestConn_Updates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		sub := readSubscription(t, ws)
		if sub == nil {
			return
		}

		var req protocol.PollAuthSessionStatusRequest
		assert.NoError(t, req.Unmarshal(sub.Body))
		assert.Equal(t, uint64(12), req.ClientID)

		multi, err := protocol.NewMulti([]*protocol.Frame{
			reply(sub.Header.JobIDSource, &protocol.PollAuthSessionStatusResponse{}),
			notify(&protocol.PollAuthSessionStatusResponse{NewChallengeURL: "https://s.team/q/1/13"}),
		}, true)
		assert.NoError(t, err)

		send(t, ws, &protocol.Frame{EMsg: protocol.EMsgMulti, Header: protocol.Header{EResult: protocol.EResultOK}, Body: multi.Marshal()})
		send(t, ws, &protocol.Frame{EMsg: 5500, Header: protocol.Header{EResult: protocol.EResultOK}})
		send(t, ws, notify(&protocol.PollAuthSessionStatusResponse{RefreshToken: "refresh", AccountName: "gaben"}))

		// Wait for the client to hang up.
		var b []byte
		_ = websocket.Message.Receive(ws, &b)
	}))
	defer ts.Close()

	endpoint := "ws" + strings.TrimPrefix(ts.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cmsocket.Dial(ctx, endpoint)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Subscribe(ctx, &protocol.PollAuthSessionStatusRequest{ClientID: 12, RequestID: []byte("r")}))

	first, err := c.Next(ctx)
	require.NoError(t, err)
	require.Empty(t, first.RefreshToken)

	second, err := c.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://s.team/q/1/13", second.NewChallengeURL)

	// The unknown frame in between is skipped.
	third, err := c.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "refresh", third.RefreshToken)

	require.NoError(t, c.Close())

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestConn_ServerHangUpEndsSequence(t *testing.T) {
	endpoint := newEndpoint(t, func(ws *websocket.Conn) {
		readSubscription(t, ws)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cmsocket.Dial(ctx, endpoint)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Subscribe(ctx, &protocol.PollAuthSessionStatusRequest{ClientID: 1}))

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestConn_FailedResult(t *testing.T) {
	endpoint := newEndpoint(t, func(ws *websocket.Conn) {
		sub := readSubscription(t, ws)
		if sub == nil {
			return
		}

		send(t, ws, &protocol.Frame{
			EMsg:   protocol.EMsgServiceMethodResponse,
			Header: protocol.Header{JobIDTarget: sub.Header.JobIDSource, EResult: protocol.EResultExpired},
		})
		send(t, ws, &protocol.Frame{EMsg: protocol.EMsgClientLogOnResponse, Header: protocol.Header{EResult: protocol.EResultTryAnotherCM}})

		var b []byte
		_ = websocket.Message.Receive(ws, &b)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cmsocket.Dial(ctx, endpoint)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Subscribe(ctx, &protocol.PollAuthSessionStatusRequest{ClientID: 1}))

	_, err = c.Next(ctx)
	res, ok := protocol.ResultOf(err)
	require.True(t, ok)
	require.Equal(t, protocol.EResultExpired, res)

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, cmsocket.ErrTryAnotherCM)

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestConn_NextHonoursContext(t *testing.T) {
	endpoint := newEndpoint(t, func(ws *websocket.Conn) {
		var b []byte
		_ = websocket.Message.Receive(ws, &b)
	})

	c, err := cmsocket.Dial(context.Background(), endpoint)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
