package credential_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vuquang23/go-steam-session/credential"
	"github.com/vuquang23/go-steam-session/protocol"
)

type keyServer struct {
	key *rsa.PrivateKey
	err error
}

func (s *keyServer) Call(_ context.Context, req protocol.Request, res protocol.Message) error {
	if s.err != nil {
		return s.err
	}

	if _, ok := req.(*protocol.GetPasswordRSAPublicKeyRequest); !ok {
		return fmt.Errorf("unexpected request %T", req)
	}

	out := res.(*protocol.GetPasswordRSAPublicKeyResponse)
	out.PublicKeyMod = s.key.N.Text(16)
	out.PublicKeyExp = fmt.Sprintf("%x", s.key.E)
	out.Timestamp = 1234

	return nil
}

func TestSealDecryptsToSecret(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	enc := credential.NewEncryptor(&keyServer{key: key})

	for _, secret := range []string{"hunter2", "pässwörd with spaces", ""} {
		sealed, err := enc.Seal(context.Background(), "gaben", []byte(secret))
		require.NoError(t, err)
		require.Equal(t, uint64(1234), sealed.Timestamp)

		ciphertext, err := base64.StdEncoding.DecodeString(sealed.Ciphertext)
		require.NoError(t, err)

		plain, err := rsa.DecryptPKCS1v15(rand.Reader, key, ciphertext)
		require.NoError(t, err)
		require.Equal(t, []byte(secret), plain)
	}
}

func TestFetchKeyErrors(t *testing.T) {
	enc := credential.NewEncryptor(&keyServer{err: &protocol.EResultError{Result: protocol.EResultAccountNotFound}})

	_, err := enc.FetchKey(context.Background(), "nobody")

	var fetchErr *credential.KeyFetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "nobody", fetchErr.AccountName)

	res, ok := protocol.ResultOf(err)
	require.True(t, ok)
	require.Equal(t, protocol.EResultAccountNotFound, res)

	network := errors.New("connection refused")
	_, err = credential.NewEncryptor(&keyServer{err: network}).FetchKey(context.Background(), "gaben")
	require.ErrorIs(t, err, network)
}

func TestInvalidKey(t *testing.T) {
	_, err := credential.Encrypt([]byte("x"), &credential.Key{Modulus: "not hex", Exponent: "010001"})
	require.ErrorIs(t, err, credential.ErrInvalidKey)

	_, err = credential.Encrypt([]byte("x"), &credential.Key{Modulus: "c0ffee", Exponent: "zz"})
	require.ErrorIs(t, err, credential.ErrInvalidKey)
}
