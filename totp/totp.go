// Package totp generates Steam Guard codes from an authenticator's shared secret.
package totp

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
)

const (
	codeAlphabet = "23456789BCDFGHJKMNPQRTVWXY"
	codeLength   = 5
	period       = 30
)

var log = logrus.WithField("pkg", "go-steam-session/totp")

// GenerateTotpCode returns the guard code valid at t for the base64 shared secret.
func GenerateTotpCode(sharedSecret string, t time.Time) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return "", fmt.Errorf("decode shared secret: %w", err)
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(t.Unix()/period))

	mac := hmac.New(sha1.New, secret)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	full := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[full%uint32(len(codeAlphabet))]
		full /= uint32(len(codeAlphabet))
	}

	return string(code), nil
}

// Caller issues a service method call.
type Caller interface {
	Call(ctx context.Context, req protocol.Request, res protocol.Message) error
}

// QueryTimeOffset returns how far the provider's clock is ahead of the local one.
// Add it to time.Now() before generating codes on a skewed host.
func QueryTimeOffset(ctx context.Context, api Caller) (time.Duration, error) {
	sent := time.Now()

	var res protocol.QueryTimeResponse
	if err := api.Call(ctx, &protocol.QueryTimeRequest{SenderTime: uint64(sent.Unix())}, &res); err != nil {
		return 0, err
	}

	offset := time.Duration(int64(res.ServerTime)-sent.Unix()) * time.Second

	log.WithField("offset", offset).Debug("Queried server time")

	return offset, nil
}
