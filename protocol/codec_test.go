package protocol_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vuquang23/go-steam-session/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestDecodeKnownWireBytes(t *testing.T) {
	// publickey_mod=1, publickey_exp=2, timestamp=3 as another encoder would write them.
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "c0ffee")
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, "010001")
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, 1700000000000)

	var res protocol.GetPasswordRSAPublicKeyResponse
	require.NoError(t, res.Unmarshal(b))
	require.Equal(t, "c0ffee", res.PublicKeyMod)
	require.Equal(t, "010001", res.PublicKeyExp)
	require.Equal(t, uint64(1700000000000), res.Timestamp)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	req := protocol.PollAuthSessionStatusRequest{ClientID: 42, RequestID: []byte{1, 2, 3}}
	b := req.Marshal()
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "from a newer schema")
	b = protowire.AppendTag(b, 98, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)

	var got protocol.PollAuthSessionStatusRequest
	require.NoError(t, got.Unmarshal(b))
	require.Equal(t, uint64(42), got.ClientID)
	require.Equal(t, []byte{1, 2, 3}, got.RequestID)
}

func TestDecodeWireTypeMismatchIsMalformed(t *testing.T) {
	// client_id sent as a string instead of a varint.
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "42")

	var res protocol.BeginAuthSessionViaCredentialsResponse
	err := res.Unmarshal(b)
	require.Error(t, err)
	require.True(t, errors.Is(err, protocol.ErrMalformed))

	var codecErr *protocol.CodecError
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, "BeginAuthSessionViaCredentialsResponse", codecErr.Message)
}

func TestDecodeTruncatedIsMalformed(t *testing.T) {
	res := protocol.PollAuthSessionStatusResponse{
		RefreshToken: "refresh",
		AccessToken:  "access",
		AccountName:  "gaben",
	}
	b := res.Marshal()

	var got protocol.PollAuthSessionStatusResponse
	require.ErrorIs(t, got.Unmarshal(b[:len(b)-3]), protocol.ErrMalformed)
}

func TestNestedMessagesAndRepeatedFields(t *testing.T) {
	res := protocol.BeginAuthSessionViaCredentialsResponse{
		ClientID:  7,
		RequestID: []byte("req"),
		Interval:  5,
		AllowedConfirmations: []protocol.AllowedConfirmation{
			{ConfirmationType: protocol.EAuthSessionGuardTypeDeviceCode},
			{ConfirmationType: protocol.EAuthSessionGuardTypeEmailCode, AssociatedMessage: "g***@example.com"},
		},
		SteamID: 76561197960287930,
	}

	var got protocol.BeginAuthSessionViaCredentialsResponse
	require.NoError(t, got.Unmarshal(res.Marshal()))
	require.Equal(t, res, got)
}

func TestNegativeEnumIsSignExtended(t *testing.T) {
	req := protocol.BeginAuthSessionViaCredentialsRequest{
		AccountName: "gaben",
		Persistence: protocol.ESessionPersistenceInvalid,
	}
	b := req.Marshal()

	var got protocol.BeginAuthSessionViaCredentialsRequest
	require.NoError(t, got.Unmarshal(b))
	require.Equal(t, protocol.ESessionPersistenceInvalid, got.Persistence)
}

func TestFixedWidthFields(t *testing.T) {
	req := protocol.UpdateAuthSessionWithSteamGuardCodeRequest{
		ClientID: 1,
		SteamID:  math.MaxUint64 - 1,
		Code:     "ABCDE",
		CodeType: protocol.EAuthSessionGuardTypeDeviceCode,
	}
	b := req.Marshal()

	// steamid is fixed64 on the wire.
	var sawFixed bool
	for rest := b; len(rest) > 0; {
		num, typ, n := protowire.ConsumeTag(rest)
		require.Positive(t, n)
		rest = rest[n:]
		if num == 2 {
			require.Equal(t, protowire.Fixed64Type, typ)
			sawFixed = true
		}
		n = protowire.ConsumeFieldValue(num, typ, rest)
		require.Positive(t, n)
		rest = rest[n:]
	}
	require.True(t, sawFixed)

	var got protocol.UpdateAuthSessionWithSteamGuardCodeRequest
	require.NoError(t, got.Unmarshal(b))
	require.Equal(t, req, got)
}

func TestServiceMethodPaths(t *testing.T) {
	require.Equal(t, "/IAuthenticationService/GetPasswordRSAPublicKey/v1", protocol.MethodGetPasswordRSAPublicKey.Path())
	require.Equal(t, "Authentication.PollAuthSessionStatus#1", protocol.MethodPollAuthSessionStatus.JobName())
	require.Equal(t, "GET", protocol.MethodGetPasswordRSAPublicKey.HTTPMethod)
	require.Equal(t, "POST", (&protocol.PollAuthSessionStatusRequest{}).ServiceMethod().HTTPMethod)
}

func TestEResult(t *testing.T) {
	require.Equal(t, "TwoFactorCodeMismatch", protocol.EResultTwoFactorCodeMismatch.String())
	require.Equal(t, "EResult(999)", protocol.EResult(999).String())
	require.True(t, protocol.EResultBusy.IsTransient())
	require.False(t, protocol.EResultInvalidPassword.IsTransient())

	err := error(&protocol.EResultError{Result: protocol.EResultExpired, Message: "too slow"})
	res, ok := protocol.ResultOf(err)
	require.True(t, ok)
	require.Equal(t, protocol.EResultExpired, res)

	_, ok = protocol.ResultOf(errors.New("plain"))
	require.False(t, ok)
}
