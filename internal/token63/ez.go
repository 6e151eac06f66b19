package token63

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EZFrame carries a 24-byte DUKPT-encrypted sale data block: tag, KSN,
// and ciphertext at fixed offsets. Unlike EW/EX/ES this frame carries
// no CRC trailer.
type EZFrame struct {
	Ksn        []byte
	Ciphertext []byte
}

const (
	ezKsnFrom     = 11
	ezKsnUntil    = 30
	ezCipherFrom  = 49
	ezCipherUntil = 96
	ezKsnBytes    = 10
	ezCipherBytes = 24
)

// ParseEZ parses a `! EZ` frame: a 10-byte KSN at offsets 10..30 and a
// 24-byte ciphertext at offsets 48..96 (0-based, half-open). Bytes
// outside those two windows carry no defined content.
func ParseEZ(raw string) (*EZFrame, error) {
	tag, err := detectTag(raw)
	if err != nil {
		return nil, err
	}
	if tag != TagEZ {
		return nil, fmt.Errorf("token63: expected %s frame, got %s", TagEZ, tag)
	}
	if err := verifyLength(tag, raw); err != nil {
		return nil, err
	}

	ksnHex, err := extractSubstring(raw, ezKsnFrom, ezKsnUntil)
	if err != nil {
		return nil, err
	}
	ksn, err := hex.DecodeString(ksnHex)
	if err != nil {
		return nil, fmt.Errorf("token63: EZ KSN is not valid hex: %w", err)
	}

	cipherHex, err := extractSubstring(raw, ezCipherFrom, ezCipherUntil)
	if err != nil {
		return nil, err
	}
	cipher, err := hex.DecodeString(cipherHex)
	if err != nil {
		return nil, fmt.Errorf("token63: EZ ciphertext is not valid hex: %w", err)
	}

	return &EZFrame{Ksn: ksn, Ciphertext: cipher}, nil
}

// BuildEZ renders an EZFrame to its fixed 108-byte wire form. The gaps
// before the KSN, between the KSN and the ciphertext, and past the
// ciphertext carry no defined content and are space-filled.
func BuildEZ(ksn, ciphertext []byte) (string, error) {
	if len(ksn) != ezKsnBytes {
		return "", fmt.Errorf("token63: EZ KSN must be %d bytes, got %d", ezKsnBytes, len(ksn))
	}
	if len(ciphertext) != ezCipherBytes {
		return "", fmt.Errorf("token63: EZ ciphertext must be %d bytes, got %d", ezCipherBytes, len(ciphertext))
	}

	gapBeforeKsn := strings.Repeat(" ", ezKsnFrom-1-len(TagEZ))
	gapBeforeCipher := strings.Repeat(" ", ezCipherFrom-1-ezKsnUntil)
	trailer := strings.Repeat(" ", TagEZ.Len()-ezCipherUntil)

	ksnHex := strings.ToUpper(hex.EncodeToString(ksn))
	cipherHex := strings.ToUpper(hex.EncodeToString(ciphertext))
	return string(TagEZ) + gapBeforeKsn + ksnHex + gapBeforeCipher + cipherHex + trailer, nil
}
