package credential

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"strconv"
)

// Encrypt encrypts secret with the RSA key using PKCS#1 v1.5 padding and
// returns the base64 ciphertext the provider expects.
func Encrypt(secret []byte, key *Key) (string, error) {
	pub, err := key.PublicKey()
	if err != nil {
		return "", err
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// PublicKey parses the hex modulus and exponent.
func (k *Key) PublicKey() (*rsa.PublicKey, error) {
	n, ok := new(big.Int).SetString(k.Modulus, 16)
	if !ok || n.Sign() <= 0 {
		return nil, ErrInvalidKey
	}

	e, err := strconv.ParseInt(k.Exponent, 16, 32)
	if err != nil || e < 3 {
		return nil, ErrInvalidKey
	}

	return &rsa.PublicKey{N: n, E: int(e)}, nil
}
