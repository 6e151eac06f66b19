package pcrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ParseRsaPrivateKey loads a PKCS#1 or PKCS#8 PEM-encoded RSA private key,
// used both to unwrap an incoming transport key and to sign outgoing
// terminal provisioning tokens.
func ParseRsaPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("pcrypto: no PEM block found in private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("pcrypto: parse private key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("pcrypto: PEM block does not hold an RSA private key")
	}
	return rsaKey, nil
}

// UnwrapTransportKey decrypts a PKCS#1 v1.5-padded transport-key blob
// using the acquirer's RSA private key, returning the raw symmetric key
// material it carries.
func UnwrapTransportKey(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("pcrypto: unwrap transport key: %w", err)
	}
	return plain, nil
}

// SignProvisioningToken produces an RSASSA-PKCS1-v1.5 signature over the
// SHA-256 digest of a terminal provisioning token; the acquirer's token
// issuance flow (IssueToken) uses it to sign the token it returns.
func SignProvisioningToken(priv *rsa.PrivateKey, token []byte) ([]byte, error) {
	digest := sha256.Sum256(token)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("pcrypto: sign provisioning token: %w", err)
	}
	return sig, nil
}

// VerifyProvisioningToken checks a token's RSASSA-PKCS1-v1.5-SHA256
// signature against the acquirer's public key, for tests and for any
// terminal-side verification tooling built on this package.
func VerifyProvisioningToken(pub *rsa.PublicKey, token, sig []byte) error {
	digest := sha256.Sum256(token)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("pcrypto: verify provisioning token: %w", err)
	}
	return nil
}
