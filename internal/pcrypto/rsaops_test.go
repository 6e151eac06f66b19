package pcrypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func generateTestKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	return pem.EncodeToMemory(block), key
}

func TestParseRsaPrivateKeyPKCS1(t *testing.T) {
	pemBytes, key := generateTestKeyPEM(t)
	parsed, err := ParseRsaPrivateKey(pemBytes)
	require.NoError(t, err)
	require.Equal(t, key.D, parsed.D)
}

func TestParseRsaPrivateKeyRejectsGarbage(t *testing.T) {
	_, err := ParseRsaPrivateKey([]byte("not a pem block"))
	require.Error(t, err)
}

func TestUnwrapTransportKeyRoundTrip(t *testing.T) {
	_, key := generateTestKeyPEM(t)
	plain := []byte("0123456789ABCDEF")

	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, &key.PublicKey, plain)
	require.NoError(t, err)

	unwrapped, err := UnwrapTransportKey(key, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plain, unwrapped)
}

func TestSignAndVerifyProvisioningToken(t *testing.T) {
	_, key := generateTestKeyPEM(t)
	token := []byte("terminal-serial-0001|2026-07-30")

	sig, err := SignProvisioningToken(key, token)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	require.NoError(t, VerifyProvisioningToken(&key.PublicKey, token, sig))

	err = VerifyProvisioningToken(&key.PublicKey, []byte("tampered"), sig)
	require.Error(t, err)
}
