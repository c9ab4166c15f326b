package session

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vuquang23/go-steam-session/cmsocket"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/token"
	"golang.org/x/time/rate"
)

func (s *Session) run(ctx context.Context) {
	if s.Status() == StatusPolling {
		s.await(ctx)
	}

	if s.Status() == StatusConfirmed {
		s.finalize(ctx)
	}
}

// await waits for the outstanding confirmations, over the push socket when the
// provider offers one and by polling otherwise.
func (s *Session) await(ctx context.Context) {
	if endpoint := s.pushEndpoint(); endpoint != "" {
		if !s.listen(ctx, endpoint) {
			return
		}

		s.log.WithField("endpoint", endpoint).Warn("Push updates unavailable, falling back to polling")
	}

	s.pollUntil(ctx, func() bool { return s.Status() != StatusPolling })
}

func (s *Session) pushEndpoint() string {
	if s.kind != KindQR || !s.m.settings.push {
		return ""
	}

	if s.m.settings.pushEndpoint != "" {
		return s.m.settings.pushEndpoint
	}

	return s.pushURL
}

// pollUntil polls at the session interval until done reports true or the session
// ends. Consecutive transport failures back off and eventually fail the session.
func (s *Session) pollUntil(ctx context.Context, done func() bool) {
	limiter := rate.NewLimiter(rate.Every(s.interval), 1)
	retry := s.newBackOff()

	for !done() {
		if err := limiter.Wait(ctx); err != nil {
			// The limiter refuses waits that would overrun the deadline.
			if ctx.Err() == nil {
				s.lastPoll(ctx)
				if done() {
					return
				}
			}

			<-ctx.Done()
			s.stopped(ctx)
			return
		}

		res, err := s.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.stopped(ctx)
				return
			}

			if fatal := classifyPoll(err); fatal != nil {
				s.fail(fatal)
				return
			}

			wait := retry.NextBackOff()
			if wait == backoff.Stop {
				s.fail(&PollError{Reason: ErrTransport, Err: err})
				return
			}

			s.log.WithError(err).WithField("retry_in", wait).Warn("Poll failed")

			if err := sleep(ctx, wait); err != nil {
				s.stopped(ctx)
				return
			}

			continue
		}

		retry.Reset()

		s.apply(update{poll: res})
	}
}

// lastPoll sends one poll shortly before the deadline, leaving a quarter
// interval to act on the answer.
func (s *Session) lastPoll(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := sleep(ctx, time.Until(deadline)-s.interval/4); err != nil {
			return
		}
	}

	res, err := s.poll(ctx)
	if err != nil {
		s.log.WithError(err).Debug("Last poll before the deadline failed")
		return
	}

	s.apply(update{poll: res})
}

func (s *Session) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.interval
	exp.MaxInterval = 8 * s.interval
	exp.MaxElapsedTime = 0
	exp.Reset()

	failures := s.m.settings.maxPollFailures - 1
	if failures < 0 {
		failures = 0
	}

	return backoff.WithMaxRetries(exp, uint64(failures))
}

func (s *Session) poll(ctx context.Context) (*protocol.PollAuthSessionStatusResponse, error) {
	var res protocol.PollAuthSessionStatusResponse

	if err := s.m.api.Call(ctx, s.pollRequest(), &res); err != nil {
		return nil, err
	}

	return &res, nil
}

func (s *Session) pollRequest() *protocol.PollAuthSessionStatusRequest {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return &protocol.PollAuthSessionStatusRequest{
		ClientID:  s.clientID,
		RequestID: s.requestID,
	}
}

// listen follows push updates while the session is Polling. It reports whether
// the session should fall back to polling.
func (s *Session) listen(ctx context.Context, endpoint string) bool {
	for attempt := 0; ; attempt++ {
		err := s.subscribe(ctx, endpoint)

		if ctx.Err() != nil {
			s.stopped(ctx)
			return false
		}

		if s.Status() != StatusPolling {
			return false
		}

		if fatal := classifyPoll(err); fatal != nil {
			s.fail(fatal)
			return false
		}

		if attempt >= s.m.settings.pushReconnects {
			return true
		}

		s.log.WithError(err).Warn("Push socket lost, reconnecting")
	}
}

// subscribe holds one push socket until the session leaves Polling or the socket fails.
func (s *Session) subscribe(ctx context.Context, endpoint string) error {
	var opts []cmsocket.Option
	if tlsConfig := s.m.settings.pushTLSConfig; tlsConfig != nil {
		opts = append(opts, cmsocket.WithTLSConfig(tlsConfig))
	}

	conn, err := cmsocket.Dial(ctx, endpoint, opts...)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Subscribe(ctx, s.pollRequest()); err != nil {
		return err
	}

	for {
		res, err := conn.Next(ctx)
		if err != nil {
			return err
		}

		s.apply(update{poll: res})

		if s.Status() != StatusPolling {
			return nil
		}
	}
}

// finalize exchanges the token issued on confirmation for the final pair.
func (s *Session) finalize(ctx context.Context) {
	if !s.apply(update{to: StatusFinalizing}) {
		return
	}

	s.pollUntil(ctx, func() bool {
		s.lock.RLock()
		defer s.lock.RUnlock()

		return s.refreshToken != "" || s.status != StatusFinalizing
	})

	s.lock.RLock()
	status, refresh, accountName, guardData := s.status, s.refreshToken, s.accountName, s.guardData
	s.lock.RUnlock()

	if status != StatusFinalizing {
		return
	}

	pair, err := s.m.refresher.Exchange(ctx, refresh, false)
	if err != nil {
		if ctx.Err() != nil {
			s.stopped(ctx)
			return
		}

		reason := ErrTransport
		if errors.Is(err, token.ErrRevoked) {
			reason = ErrSessionRevoked
		}

		s.fail(&PollError{Reason: reason, Err: err})
		return
	}

	claims, err := token.Parse(pair.AccessToken)
	if err != nil {
		s.fail(&PollError{Reason: ErrTransport, Err: err})
		return
	}

	steamID, err := claims.SteamID()
	if err != nil {
		s.fail(&PollError{Reason: ErrTransport, Err: err})
		return
	}

	cookies, err := s.m.Cookies(pair)
	if err != nil {
		s.fail(&PollError{Reason: ErrTransport, Err: err})
		return
	}

	s.lock.Lock()
	s.steamID = steamID
	s.lock.Unlock()

	established := s.apply(update{to: StatusEstablished, result: &Result{
		SteamID:     steamID,
		AccountName: accountName,
		Tokens:      pair,
		Cookies:     cookies,
		GuardData:   guardData,
	}})

	if established {
		s.log.WithField("steam_id", steamID).Info("Session established")
	}
}

func (s *Session) fail(err error) {
	to := StatusFailed
	if errors.Is(err, ErrSessionExpired) {
		to = StatusExpired
	}

	if s.apply(update{to: to, err: err}) {
		s.log.WithError(err).WithField("status", to).Warn("Session ended")
	}
}

// stopped is called when ctx ended a wait. Running past the deadline expires the
// session; cancellation was already recorded by Cancel.
func (s *Session) stopped(ctx context.Context) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && s.ctx.Err() == nil {
		s.fail(&PollError{Reason: ErrSessionExpired, Err: ctx.Err()})
	}
}
