package totp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vuquang23/go-steam-session/protocol"
	"github.com/vuquang23/go-steam-session/totp"
)

const sharedSecret = "MDEyMzQ1Njc4OWFiY2RlZmdoaWo="

func TestGenerateTotpCode(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{0, "CX2MR"},
		{1700000000, "C96G3"},
		{1700000029, "JGGKH"},
		{1700000030, "JGGKH"},
	}

	for _, test := range tests {
		code, err := totp.GenerateTotpCode(sharedSecret, time.Unix(test.unix, 0))
		require.NoError(t, err)
		require.Equal(t, test.want, code, "at %d", test.unix)
	}
}

func TestGenerateTotpCode_BadSecret(t *testing.T) {
	_, err := totp.GenerateTotpCode("%%%", time.Now())
	require.Error(t, err)
}

type clock struct {
	ahead time.Duration
}

func (c clock) Call(_ context.Context, req protocol.Request, res protocol.Message) error {
	sent := req.(*protocol.QueryTimeRequest).SenderTime
	res.(*protocol.QueryTimeResponse).ServerTime = sent + uint64(c.ahead/time.Second)
	return nil
}

func TestQueryTimeOffset(t *testing.T) {
	offset, err := totp.QueryTimeOffset(context.Background(), clock{ahead: 90 * time.Second})
	require.NoError(t, err)
	require.InDelta(t, float64(90*time.Second), float64(offset), float64(time.Second))
}
