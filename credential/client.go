// Package credential encrypts account passwords with the provider's RSA key.
package credential

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vuquang23/go-steam-session/protocol"
)

var log = logrus.WithField("pkg", "go-steam-session/credential")

// Caller issues a service method call.
type Caller interface {
	Call(ctx context.Context, req protocol.Request, res protocol.Message) error
}

type Encryptor struct {
	api Caller
}

func NewEncryptor(api Caller) *Encryptor {
	return &Encryptor{api: api}
}

// FetchKey fetches the current key for accountName.
func (e *Encryptor) FetchKey(ctx context.Context, accountName string) (*Key, error) {
	var res protocol.GetPasswordRSAPublicKeyResponse

	if err := e.api.Call(ctx, &protocol.GetPasswordRSAPublicKeyRequest{AccountName: accountName}, &res); err != nil {
		return nil, &KeyFetchError{AccountName: accountName, Err: err}
	}

	key := &Key{
		Modulus:   res.PublicKeyMod,
		Exponent:  res.PublicKeyExp,
		Timestamp: res.Timestamp,
	}

	if _, err := key.PublicKey(); err != nil {
		return nil, &KeyFetchError{AccountName: accountName, Err: err}
	}

	log.WithField("timestamp", key.Timestamp).Debug("Fetched rsa key")

	return key, nil
}

// Seal fetches a fresh key and encrypts secret with it.
func (e *Encryptor) Seal(ctx context.Context, accountName string, secret []byte) (*Encrypted, error) {
	key, err := e.FetchKey(ctx, accountName)
	if err != nil {
		return nil, err
	}

	ciphertext, err := Encrypt(secret, key)
	if err != nil {
		return nil, err
	}

	return &Encrypted{Ciphertext: ciphertext, Timestamp: key.Timestamp}, nil
}
