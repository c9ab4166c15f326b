package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/server"
	"github.com/vuquang23/go-steam-session/session"
	"github.com/vuquang23/go-steam-session/token"
	"github.com/vuquang23/go-steam-session/totp"
)

const (
	accountName = "gaben"
	password    = "hunter2"
)

func newTestServer(t *testing.T, guards ...protocol.EAuthSessionGuardType) (*server.Server, uint64) {
	t.Helper()

	s := server.New()
	t.Cleanup(s.Close)

	steamID, err := s.CreateUser(accountName, password, guards...)
	require.NoError(t, err)

	return s, steamID
}

func newTestManager(t *testing.T, s *server.Server, opts ...session.Option) *session.Manager {
	t.Helper()

	m := session.New(append([]session.Option{
		session.WithHostURL(s.GetHostURL()),
		session.WithMinPollInterval(10 * time.Millisecond),
		session.WithRetryCount(1),
		session.WithRetryWaitTime(time.Millisecond),
	}, opts...)...)
	t.Cleanup(m.Close)

	return m
}

func countCalls(s *server.Server, method protocol.ServiceMethod) *atomic.Int32 {
	var n atomic.Int32

	s.AddCallWatcher(func(server.Call) {
		n.Add(1)
	}, method.Path())

	return &n
}

func credentials() session.Credentials {
	return session.Credentials{AccountName: accountName, Password: []byte(password)}
}

func wait(t *testing.T, sess *session.Session) (*session.Result, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return sess.Wait(ctx)
}

func TestBeginWithCredentials_NoConfirmation(t *testing.T) {
	s, steamID := newTestServer(t)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Equal(t, session.KindCredentials, sess.Kind())
	require.Equal(t, steamID, sess.SteamID())
	require.True(t, sess.Outstanding().Empty())

	res, err := wait(t, sess)
	require.NoError(t, err)
	require.Equal(t, session.StatusEstablished, sess.Status())
	require.Equal(t, steamID, res.SteamID)
	require.Equal(t, accountName, res.AccountName)
	require.Len(t, res.Cookies, len(token.DefaultDomains))

	claims, err := token.Parse(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.False(t, claims.Expired(time.Now()))

	_, err = wait(t, sess)
	require.ErrorIs(t, err, session.ErrResultTaken)
}

func TestBeginWithCredentials_WipesPassword(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	creds := credentials()

	sess, err := m.BeginWithCredentials(context.Background(), creds)
	require.NoError(t, err)
	defer sess.Cancel()

	require.Equal(t, make([]byte, len(password)), creds.Password)
}

func TestBeginWithCredentials_Missing(t *testing.T) {
	m := session.New()
	defer m.Close()

	_, err := m.BeginWithCredentials(context.Background(), session.Credentials{AccountName: accountName})
	require.ErrorIs(t, err, session.ErrMissingCredentials)
}

func TestBeginWithCredentials_InvalidPassword(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	_, err := m.BeginWithCredentials(context.Background(), session.Credentials{
		AccountName: accountName,
		Password:    []byte("wrong"),
	})
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
	require.True(t, session.NeedsRestart(err))

	var beginErr *session.BeginSessionError
	require.ErrorAs(t, err, &beginErr)
}

func TestBeginWithCredentials_StaleKeyRetriedOnce(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	begins := countCalls(s, protocol.MethodBeginAuthSessionViaCredentials)
	keys := countCalls(s, protocol.MethodGetPasswordRSAPublicKey)

	s.SetStaleKeys(1)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Eventually(t, func() bool { return begins.Load() == 2 && keys.Load() == 2 }, time.Second, time.Millisecond)
}

func TestBeginWithCredentials_StaleKeyTwice(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	begins := countCalls(s, protocol.MethodBeginAuthSessionViaCredentials)

	s.SetStaleKeys(2)

	_, err := m.BeginWithCredentials(context.Background(), credentials())
	require.ErrorIs(t, err, session.ErrStaleKey)
	require.Eventually(t, func() bool { return begins.Load() == 2 }, time.Second, time.Millisecond)
}

func TestBeginWithCredentials_GuardCode(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceCode)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Equal(t, session.StatusPolling, sess.Status())
	require.Equal(t, session.NewMethodSet(session.MethodGuardCode), sess.Outstanding())

	err = sess.SubmitCode(context.Background(), session.MethodEmailCode, "ABCDE")
	require.ErrorIs(t, err, session.ErrNoSuchMethodOutstanding)

	err = sess.SubmitCode(context.Background(), session.MethodGuardCode, "00000")
	require.ErrorIs(t, err, session.ErrWrongCode)
	require.True(t, session.NeedsInput(err))
	require.Equal(t, session.StatusPolling, sess.Status())

	secret, err := s.GetSharedSecret(accountName)
	require.NoError(t, err)

	code, err := totp.GenerateTotpCode(secret, time.Now())
	require.NoError(t, err)

	require.NoError(t, sess.SubmitCode(context.Background(), session.MethodGuardCode, code))

	res, err := wait(t, sess)
	require.NoError(t, err)
	require.NotEmpty(t, res.Tokens.RefreshToken)
	require.True(t, sess.Outstanding().Empty())
}

func TestBeginWithCredentials_OutstandingOnlyShrinks(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceCode, protocol.EAuthSessionGuardTypeEmailCode)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	want := session.NewMethodSet(session.MethodGuardCode, session.MethodEmailCode)
	require.Equal(t, want, sess.Outstanding())

	emailCode, err := s.GetEmailCode(accountName)
	require.NoError(t, err)
	require.NoError(t, sess.SubmitCode(context.Background(), session.MethodEmailCode, emailCode))

	seen, deadline := want, time.Now().Add(5*time.Second)

	for seen != session.NewMethodSet(session.MethodGuardCode) {
		require.True(t, time.Now().Before(deadline), "email code never satisfied")
		time.Sleep(5 * time.Millisecond)

		now := sess.Outstanding()
		require.Equal(t, now, now.Intersect(seen), "outstanding grew from %v to %v", seen, now)
		seen = now
	}

	require.Equal(t, session.StatusPolling, sess.Status())

	err = sess.SubmitCode(context.Background(), session.MethodEmailCode, emailCode)
	require.ErrorIs(t, err, session.ErrNoSuchMethodOutstanding)

	secret, err := s.GetSharedSecret(accountName)
	require.NoError(t, err)

	code, err := totp.GenerateTotpCode(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, sess.SubmitCode(context.Background(), session.MethodGuardCode, code))

	res, err := wait(t, sess)
	require.NoError(t, err)

	guardData, err := s.GetGuardData(accountName)
	require.NoError(t, err)
	require.Equal(t, guardData, res.GuardData)
}

func TestBeginWithCredentials_GuardDataSkipsEmail(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeEmailCode)
	m := newTestManager(t, s)

	guardData, err := s.GetGuardData(accountName)
	require.NoError(t, err)

	creds := credentials()
	creds.GuardData = guardData

	sess, err := m.BeginWithCredentials(context.Background(), creds)
	require.NoError(t, err)
	defer sess.Cancel()

	require.True(t, sess.Outstanding().Empty())

	_, err = wait(t, sess)
	require.NoError(t, err)
}

func TestBeginWithCredentials_DeviceConfirmation(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Equal(t, session.NewMethodSet(session.MethodDeviceConfirmation), sess.Outstanding())

	err = sess.SubmitCode(context.Background(), session.MethodDeviceConfirmation, "12345")
	require.ErrorIs(t, err, session.ErrNoSuchMethodOutstanding)

	require.Equal(t, 1, s.ConfirmDevice(accountName))

	_, err = wait(t, sess)
	require.NoError(t, err)
}

func TestCancel_StopsPolling(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	m := newTestManager(t, s)

	polls := countCalls(s, protocol.MethodPollAuthSessionStatus)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return polls.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)

	sess.Cancel()
	sess.Cancel()

	// Let a request already on the wire be answered.
	time.Sleep(2 * sess.Interval())

	after := polls.Load()
	time.Sleep(5 * sess.Interval())

	require.Equal(t, after, polls.Load())
	require.Equal(t, session.StatusCancelled, sess.Status())
	require.ErrorIs(t, sess.Err(), session.ErrCancelled)

	_, err = wait(t, sess)
	require.ErrorIs(t, err, session.ErrCancelled)
}

func TestSession_ExpiredByProvider(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	require.NoError(t, s.ExpireSession(sess.ClientID()))

	_, err = wait(t, sess)
	require.ErrorIs(t, err, session.ErrSessionExpired)
	require.True(t, session.NeedsRestart(err))
	require.Equal(t, session.StatusExpired, sess.Status())
}

func TestSession_Deadline(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	m := newTestManager(t, s, session.WithDeadline(200*time.Millisecond))

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	_, err = wait(t, sess)
	require.ErrorIs(t, err, session.ErrSessionExpired)
	require.Equal(t, session.StatusExpired, sess.Status())

	// The confirmation arriving late changes nothing.
	s.ConfirmDevice(accountName)
	time.Sleep(3 * sess.Interval())
	require.Equal(t, session.StatusExpired, sess.Status())
}

func TestSession_ConfirmedInLastInterval(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	polls := countCalls(s, protocol.MethodPollAuthSessionStatus)
	m := newTestManager(t, s,
		session.WithMinPollInterval(400*time.Millisecond),
		session.WithDeadline(700*time.Millisecond),
	)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	// The next regular poll would land past the deadline.
	require.Eventually(t, func() bool { return polls.Load() == 2 }, time.Second, 5*time.Millisecond)
	s.ConfirmDevice(accountName)

	res, err := wait(t, sess)
	require.NoError(t, err)
	require.Equal(t, session.StatusEstablished, sess.Status())
	require.NotEmpty(t, res.Tokens.RefreshToken)
	require.Eventually(t, func() bool { return polls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestSession_TransportFailures(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	m := newTestManager(t, s, session.WithMaxPollFailures(2), session.WithRetryCount(0))

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	s.SetOffline(true)

	_, err = wait(t, sess)
	require.ErrorIs(t, err, session.ErrTransport)
	require.Equal(t, session.StatusFailed, sess.Status())

	var pollErr *session.PollError
	require.ErrorAs(t, err, &pollErr)
}

func TestSession_MalformedPollRetried(t *testing.T) {
	s, _ := newTestServer(t, protocol.EAuthSessionGuardTypeDeviceConfirmation)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	s.SetMalformed(1)
	s.ConfirmDevice(accountName)

	_, err = wait(t, sess)
	require.NoError(t, err)
}

func TestBeginWithQR_Push(t *testing.T) {
	s, steamID := newTestServer(t)
	m := newTestManager(t, s)

	sess, err := m.BeginWithQR(context.Background())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Equal(t, session.KindQR, sess.Kind())
	require.Equal(t, session.StatusPolling, sess.Status())
	require.Equal(t, session.NewMethodSet(session.MethodQrScanApproval), sess.Outstanding())
	require.NotEmpty(t, sess.ChallengeURL())

	require.NoError(t, s.ScanQR(sess.ClientID()))
	require.NoError(t, s.ApproveQR(sess.ClientID(), accountName))

	res, err := wait(t, sess)
	require.NoError(t, err)
	require.Equal(t, steamID, res.SteamID)
	require.Equal(t, steamID, sess.SteamID())
	require.Equal(t, accountName, res.AccountName)
}

func TestBeginWithQR_PushDropped(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	polls := countCalls(s, protocol.MethodPollAuthSessionStatus)

	sess, err := m.BeginWithQR(context.Background())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Eventually(t, func() bool { return s.GetPushSubscriptions() == 1 }, 5*time.Second, 5*time.Millisecond)

	s.DropPushConnections()

	// One reconnect resubscribes to the same session.
	require.Eventually(t, func() bool { return s.GetPushSubscriptions() == 2 }, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, session.StatusPolling, sess.Status())

	require.NoError(t, s.ApproveQR(sess.ClientID(), accountName))

	_, err = wait(t, sess)
	require.NoError(t, err)
	require.Equal(t, session.StatusEstablished, sess.Status())
	require.Zero(t, polls.Load())
}

func TestBeginWithQR_PushDroppedTwice(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	polls := countCalls(s, protocol.MethodPollAuthSessionStatus)

	sess, err := m.BeginWithQR(context.Background())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Eventually(t, func() bool { return s.GetPushSubscriptions() == 1 }, 5*time.Second, 5*time.Millisecond)
	s.DropPushConnections()

	require.Eventually(t, func() bool { return s.GetPushSubscriptions() == 2 }, 5*time.Second, 5*time.Millisecond)
	s.DropPushConnections()

	// Out of reconnects, the session keeps going by polling.
	require.Eventually(t, func() bool { return polls.Load() > 0 }, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, session.StatusPolling, sess.Status())
	require.Equal(t, 2, s.GetPushSubscriptions())

	require.NoError(t, s.ApproveQR(sess.ClientID(), accountName))

	_, err = wait(t, sess)
	require.NoError(t, err)
}

func TestCancel_ClosesPushSocket(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	polls := countCalls(s, protocol.MethodPollAuthSessionStatus)

	sess, err := m.BeginWithQR(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.GetPushSubscriptions() == 1 }, 5*time.Second, 5*time.Millisecond)

	sess.Cancel()

	require.Equal(t, session.StatusCancelled, sess.Status())
	require.Eventually(t, func() bool { return s.GetPushConnections() == 0 }, 5*time.Second, 5*time.Millisecond)
	require.Zero(t, polls.Load())
}

func TestBeginWithQR_PushRefused(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	polls := countCalls(s, protocol.MethodPollAuthSessionStatus)

	s.SetPushRefused(true)

	sess, err := m.BeginWithQR(context.Background())
	require.NoError(t, err)
	defer sess.Cancel()

	require.Eventually(t, func() bool { return polls.Load() > 0 }, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, session.StatusPolling, sess.Status())

	require.NoError(t, s.ApproveQR(sess.ClientID(), accountName))

	_, err = wait(t, sess)
	require.NoError(t, err)
}

func TestBeginWithQR_Rotated(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s, session.WithoutPush())

	sess, err := m.BeginWithQR(context.Background())
	require.NoError(t, err)
	defer sess.Cancel()

	first, firstURL := sess.ClientID(), sess.ChallengeURL()

	next, err := s.RotateQR(first)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sess.ClientID() == next }, 5*time.Second, 5*time.Millisecond)
	require.NotEqual(t, firstURL, sess.ChallengeURL())
	require.Equal(t, session.StatusPolling, sess.Status())

	require.NoError(t, s.ApproveQR(next, accountName))

	_, err = wait(t, sess)
	require.NoError(t, err)
}

func TestManager_Refresh(t *testing.T) {
	s, _ := newTestServer(t)
	m := newTestManager(t, s)

	sess, err := m.BeginWithCredentials(context.Background(), credentials())
	require.NoError(t, err)
	defer sess.Cancel()

	res, err := wait(t, sess)
	require.NoError(t, err)

	pair, err := m.Refresh(context.Background(), res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, res.Tokens.RefreshToken, pair.RefreshToken)

	s.SetRotateRefreshTokens(true)

	rotated, err := m.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = m.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, token.ErrRevoked)
	require.True(t, session.NeedsRestart(err))
}
