package server

import (
	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
	"golang.org/x/net/websocket"
)

var log = logrus.WithField("pkg", "go-steam-session/server")

// handlePush serves one push socket. The first frame must subscribe to a session;
// the subscription is answered with the current status, then every change is
// pushed until tokens are issued or the socket closes.
func (s *Server) handlePush(ws *websocket.Conn) {
	ws.PayloadType = websocket.BinaryFrame

	if !s.track(ws) {
		return
	}
	defer s.untrack(ws)

	if s.pushRefused.Load() {
		return
	}

	var raw []byte
	if err := websocket.Message.Receive(ws, &raw); err != nil {
		return
	}

	f, err := protocol.ParseFrame(raw)
	if err != nil || f.EMsg != protocol.EMsgServiceMethodCallFromClientNonAuthed ||
		f.Header.TargetJobName != protocol.MethodPollAuthSessionStatus.JobName() {
		_ = s.send(ws, &protocol.Frame{
			EMsg:   protocol.EMsgClientLogOnResponse,
			Header: protocol.Header{EResult: protocol.EResultTryAnotherCM},
		})
		return
	}

	var req protocol.PollAuthSessionStatusRequest
	if err := req.Unmarshal(f.Body); err != nil {
		return
	}

	s.pushSubscriptions.Add(1)

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			var discard []byte
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	changes := s.b.changes()
	res, result := s.b.poll(&req)

	reply := &protocol.Frame{
		EMsg: protocol.EMsgServiceMethodResponse,
		Header: protocol.Header{
			JobIDTarget: f.Header.JobIDSource,
			EResult:     result,
		},
	}
	if result == protocol.EResultOK {
		reply.Body = res.Marshal()
	}

	multi, err := protocol.NewMulti([]*protocol.Frame{reply}, true)
	if err != nil {
		return
	}

	if err := s.send(ws, &protocol.Frame{EMsg: protocol.EMsgMulti, Header: protocol.Header{EResult: protocol.EResultOK}, Body: multi.Marshal()}); err != nil {
		return
	}

	for result == protocol.EResultOK && res.RefreshToken == "" {
		select {
		case <-changes:
		case <-closed:
			return
		}

		changes = s.b.changes()
		res, result = s.b.poll(&req)

		if res != nil && res.NewClientID != 0 {
			req.ClientID = res.NewClientID
		}

		notification := &protocol.Frame{
			EMsg: protocol.EMsgServiceMethod,
			Header: protocol.Header{
				TargetJobName: protocol.MethodPollAuthSessionStatus.JobName(),
				EResult:       result,
			},
		}
		if result == protocol.EResultOK {
			notification.Body = res.Marshal()
		}

		if err := s.send(ws, notification); err != nil {
			return
		}
	}

	<-closed
}

func (s *Server) send(ws *websocket.Conn, f *protocol.Frame) error {
	if err := websocket.Message.Send(ws, f.Marshal()); err != nil {
		log.WithError(err).Debug("Push send failed")
		return err
	}

	return nil
}

func (s *Server) track(ws *websocket.Conn) bool {
	s.connsLock.Lock()
	defer s.connsLock.Unlock()

	if s.conns == nil {
		return false
	}

	s.conns[ws] = struct{}{}

	return true
}

func (s *Server) untrack(ws *websocket.Conn) {
	s.connsLock.Lock()
	defer s.connsLock.Unlock()

	delete(s.conns, ws)
}
