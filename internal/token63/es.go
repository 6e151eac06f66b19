package token63

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ESFrame carries an 8-byte DUKPT-encrypted PIN block: tag, KSN, a
// declared ciphertext length that (unlike EX) actually matches the
// ciphertext width, a CRC, and trailing filler.
type ESFrame struct {
	Ksn        []byte
	Ciphertext []byte
	Crc        string
}

const (
	esKsnFrom       = 5
	esKsnUntil      = 24
	esLenFrom       = 25
	esLenUntil      = 29
	esCipherFrom    = 30
	esCipherUntil   = 45
	esCrcFrom       = 46
	esCrcUntil      = 53
	esReservedFrom  = 54
	esReservedUntil = 70
	esLenBytes      = 8
)

// ParseES parses a `! ES` frame and validates its CRC.
func ParseES(raw string) (*ESFrame, error) {
	tag, err := detectTag(raw)
	if err != nil {
		return nil, err
	}
	if tag != TagES {
		return nil, fmt.Errorf("token63: expected %s frame, got %s", TagES, tag)
	}
	if err := verifyLength(tag, raw); err != nil {
		return nil, err
	}

	ksnHex, err := extractSubstring(raw, esKsnFrom, esKsnUntil)
	if err != nil {
		return nil, err
	}
	ksn, err := hex.DecodeString(ksnHex)
	if err != nil {
		return nil, fmt.Errorf("token63: ES KSN is not valid hex: %w", err)
	}

	cipherHex, err := extractSubstring(raw, esCipherFrom, esCipherUntil)
	if err != nil {
		return nil, err
	}
	cipher, err := hex.DecodeString(cipherHex)
	if err != nil {
		return nil, fmt.Errorf("token63: ES ciphertext is not valid hex: %w", err)
	}

	crc, err := extractSubstring(raw, esCrcFrom, esCrcUntil)
	if err != nil {
		return nil, err
	}
	if want := frameCrc(cipherHex); want != crc {
		return nil, fmt.Errorf("token63: ES frame CRC mismatch: frame has %s, computed %s", crc, want)
	}

	return &ESFrame{Ksn: ksn, Ciphertext: cipher, Crc: crc}, nil
}

// BuildES renders an ESFrame to its fixed 70-byte wire form.
func BuildES(ksn, ciphertext []byte) (string, error) {
	if len(ksn) != 10 {
		return "", fmt.Errorf("token63: ES KSN must be 10 bytes, got %d", len(ksn))
	}
	if len(ciphertext) != esLenBytes {
		return "", fmt.Errorf("token63: ES ciphertext must be %d bytes, got %d", esLenBytes, len(ciphertext))
	}
	cipherHex := strings.ToUpper(hex.EncodeToString(ciphertext))
	crc := frameCrc(cipherHex)
	reserved := strings.Repeat(" ", esReservedUntil-esReservedFrom+1)
	return string(TagES) + strings.ToUpper(hex.EncodeToString(ksn)) + lengthField(esLenBytes, 5) + cipherHex + crc + reserved, nil
}
