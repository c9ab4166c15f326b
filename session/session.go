package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
)

// Session is one login attempt. Its status only moves forward; once terminal,
// every further event is ignored.
type Session struct {
	id   string
	kind Kind
	m    *Manager
	log  *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	// Set by begin and never changed afterwards.
	requestID []byte
	interval  time.Duration
	deadline  time.Time
	pushURL   string

	lock         sync.RWMutex
	status       Status
	outstanding  MethodSet
	clientID     uint64
	steamID      uint64
	accountName  string
	challengeURL string
	refreshToken string
	guardData    string
	err          error
	result       *Result
}

// update is one event folded into the session by apply. Either poll is set, or
// to names the status to move to.
type update struct {
	poll *protocol.PollAuthSessionStatusResponse

	to     Status
	err    error
	result *Result
}

type beginning struct {
	clientID     uint64
	requestID    []byte
	steamID      uint64
	accountName  string
	interval     float32
	challengeURL string
	pushURL      string
	outstanding  MethodSet
}

func (m *Manager) newSession(kind Kind) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	id := uuid.NewString()

	return &Session{
		id:     id,
		kind:   kind,
		m:      m,
		log:    log.WithFields(logrus.Fields{"session": id, "kind": kind}),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		status: StatusCreated,
	}
}

// begin records what the provider answered and starts driving the session.
func (s *Session) begin(b beginning) {
	s.requestID = b.requestID
	s.pushURL = b.pushURL
	s.interval = intervalOf(b.interval, s.m.settings.minPollInterval)

	lifetime := s.m.settings.deadline
	if lifetime <= 0 {
		lifetime = s.interval * time.Duration(s.m.settings.maxPollAttempts)
	}
	s.deadline = time.Now().Add(lifetime)

	s.lock.Lock()
	s.clientID = b.clientID
	s.steamID = b.steamID
	s.accountName = b.accountName
	s.challengeURL = b.challengeURL
	s.outstanding = b.outstanding
	s.moveTo(StatusPending, nil, nil)

	if b.outstanding.Empty() && s.kind == KindCredentials {
		s.moveTo(StatusConfirmed, nil, nil)
	} else {
		s.moveTo(StatusPolling, nil, nil)
	}
	s.lock.Unlock()

	s.log.WithFields(logrus.Fields{
		"client_id":   b.clientID,
		"outstanding": b.outstanding,
		"interval":    s.interval,
		"deadline":    s.deadline,
	}).Info("Session started")

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithDeadline(s.ctx, s.deadline)
		defer cancel()

		s.run(ctx)
	}()
}

// abort fails a session that never started.
func (s *Session) abort(err error) {
	s.apply(update{to: StatusFailed, err: err})
	s.cancel()
}

// apply is the only place the session changes. It reports whether u took effect.
func (s *Session) apply(u update) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.status.Terminal() {
		s.log.WithField("status", s.status).Debug("Ignoring event on finished session")
		return false
	}

	if u.poll != nil {
		s.applyPoll(u.poll)
		return true
	}

	return s.moveTo(u.to, u.err, u.result)
}

func (s *Session) applyPoll(res *protocol.PollAuthSessionStatusResponse) {
	if res.NewClientID != 0 && res.NewClientID != s.clientID {
		s.log.WithField("client_id", res.NewClientID).Debug("Session re-keyed")
		s.clientID = res.NewClientID
	}

	if res.NewChallengeURL != "" {
		s.challengeURL = res.NewChallengeURL
	}

	if res.AccountName != "" {
		s.accountName = res.AccountName
	}

	if res.NewGuardData != "" {
		s.guardData = res.NewGuardData
	}

	if res.HadRemoteInteraction && s.kind == KindQR {
		s.log.Debug("Challenge was scanned")
	}

	switch {
	case res.RefreshToken != "":
		s.refreshToken = res.RefreshToken
		s.outstanding = 0

	case len(res.RemainingConfirmations) > 0:
		next := s.outstanding.Intersect(methodsFor(s.kind, res.RemainingConfirmations))

		if next != s.outstanding {
			s.log.WithFields(logrus.Fields{"from": s.outstanding, "to": next}).Debug("Confirmation satisfied")
			s.outstanding = next

			if s.status == StatusPolling {
				s.moveTo(StatusPending, nil, nil)
				s.moveTo(StatusPolling, nil, nil)
			}
		}
	}

	if s.status == StatusPolling && s.outstanding.Empty() && s.refreshToken != "" {
		s.moveTo(StatusConfirmed, nil, nil)
	}
}

// moveTo must be called with the lock held.
func (s *Session) moveTo(to Status, err error, result *Result) bool {
	if !s.status.canMoveTo(to) {
		s.log.WithFields(logrus.Fields{"from": s.status, "to": to}).Warn("Refusing invalid transition")
		return false
	}

	s.log.WithFields(logrus.Fields{"from": s.status, "to": to}).Debug("Session transition")

	s.status = to

	switch to {
	case StatusFailed, StatusExpired, StatusCancelled:
		s.err = err
		s.refreshToken = ""

	case StatusEstablished:
		s.result = result
		s.refreshToken = ""
	}

	if to.Terminal() {
		close(s.done)
	}

	return true
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Kind() Kind {
	return s.kind
}

func (s *Session) Status() Status {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.status
}

// Outstanding returns the confirmations still required.
func (s *Session) Outstanding() MethodSet {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.outstanding
}

// ClientID returns the provider's handle for the session; the provider may re-key it.
func (s *Session) ClientID() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.clientID
}

// SteamID is known from the start for credential logins and once established for QR logins.
func (s *Session) SteamID() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.steamID
}

// ChallengeURL returns the URL to render as a QR code. Empty for credential logins.
func (s *Session) ChallengeURL() string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.challengeURL
}

// Interval is the poll interval in use, after the floor was applied.
func (s *Session) Interval() time.Duration {
	return s.interval
}

func (s *Session) Deadline() time.Time {
	return s.deadline
}

// Done is closed once the session reaches a terminal status.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended. It is nil while running and after success.
func (s *Session) Err() error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.err
}

// SubmitCode answers an outstanding code confirmation. A wrong code leaves the
// session Polling; a right one is reflected by the next status update.
func (s *Session) SubmitCode(ctx context.Context, method Method, code string) error {
	codeType, ok := guardTypeOf(method)

	s.lock.RLock()
	status, outstanding, clientID, steamID := s.status, s.outstanding, s.clientID, s.steamID
	s.lock.RUnlock()

	if !ok || status != StatusPolling || !outstanding.Has(method) {
		return &SubmitError{Method: method, Reason: ErrNoSuchMethodOutstanding}
	}

	req := &protocol.UpdateAuthSessionWithSteamGuardCodeRequest{
		ClientID: clientID,
		SteamID:  steamID,
		Code:     code,
		CodeType: codeType,
	}

	var res protocol.UpdateAuthSessionWithSteamGuardCodeResponse

	if err := s.m.api.Call(ctx, req, &res); err != nil {
		if err := classifySubmit(method, err); err != nil {
			s.log.WithError(err).Warn("Code rejected")
			return err
		}
	}

	s.log.WithField("method", method).Info("Code accepted")

	return nil
}

// Wait blocks until the session ends and hands over its result. The result is
// released to the first caller only; later calls get ErrResultTaken.
func (s *Session) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case <-s.done:
	}

	s.wg.Wait()

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	if s.result == nil {
		return nil, ErrResultTaken
	}

	result := s.result
	s.result = nil

	return result, nil
}

// Cancel abandons the session and returns once its background work stopped.
// It is safe to call more than once and after the session ended.
func (s *Session) Cancel() {
	if s.apply(update{to: StatusCancelled, err: ErrCancelled}) {
		s.log.Info("Session cancelled")
	}

	s.cancel()
	s.wg.Wait()
}
