// Package pcrypto implements the acquirer-side cryptographic kernel:
// 3DES-ECB key derivation and data encryption, DUKPT key management, and
// the RSA operations used to unwrap a transport key and sign a terminal
// provisioning token. Grounded on the SCP02 3DES helpers in the retrieval
// pack (ExpandTo3DESKey, desECBEncrypt/desECBDecrypt, xor8) generalized
// from GlobalPlatform's 2-key expansion to DUKPT's key-derivation needs.
package pcrypto

import (
	"crypto/des"
	"fmt"
)

// ExpandTo3DESKey expands a 16-byte 2-key 3DES key into its 24-byte
// K1||K2||K1 form; a 24-byte key passes through unchanged.
func ExpandTo3DESKey(k []byte) ([]byte, error) {
	switch len(k) {
	case 16:
		out := make([]byte, 24)
		copy(out[0:16], k)
		copy(out[16:24], k[0:8])
		return out, nil
	case 24:
		out := make([]byte, 24)
		copy(out, k)
		return out, nil
	default:
		return nil, fmt.Errorf("pcrypto: 3DES key must be 16 or 24 bytes, got %d", len(k))
	}
}

// TDesEcbEncrypt encrypts data (a multiple of 8 bytes, no padding applied)
// under key24 in ECB mode, block by block.
func TDesEcbEncrypt(key24, data []byte) ([]byte, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("pcrypto: data must be a multiple of 8 bytes, got %d", len(data))
	}
	block, err := des.NewTripleDESCipher(key24)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += 8 {
		block.Encrypt(out[i:i+8], data[i:i+8])
	}
	return out, nil
}

// TDesEcbDecrypt decrypts data (a multiple of 8 bytes) under key24 in ECB
// mode, block by block, with no padding removed.
func TDesEcbDecrypt(key24, data []byte) ([]byte, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("pcrypto: data must be a multiple of 8 bytes, got %d", len(data))
	}
	block, err := des.NewTripleDESCipher(key24)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += 8 {
		block.Decrypt(out[i:i+8], data[i:i+8])
	}
	return out, nil
}

// DesEcbEncrypt encrypts a single 8-byte block under an 8-byte single-DES
// key, used by the DUKPT key-variant and base-key-derivation steps.
func DesEcbEncrypt(key8, block8 []byte) ([]byte, error) {
	if len(key8) != 8 {
		return nil, fmt.Errorf("pcrypto: DES key must be 8 bytes, got %d", len(key8))
	}
	if len(block8) != 8 {
		return nil, fmt.Errorf("pcrypto: block must be 8 bytes, got %d", len(block8))
	}
	c, err := des.NewCipher(key8)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8)
	c.Encrypt(out, block8)
	return out, nil
}

// Xor8 xors two 8-byte slices.
func Xor8(a, b []byte) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Kcv returns the first n bytes of key encrypted against an all-zero
// block — the standard Key Check Value used to fingerprint a key
// without exposing it.
func Kcv(key24 []byte, n int) ([]byte, error) {
	zero := make([]byte, 8)
	enc, err := TDesEcbEncrypt(key24, zero)
	if err != nil {
		return nil, err
	}
	if n > len(enc) {
		n = len(enc)
	}
	return enc[:n], nil
}
