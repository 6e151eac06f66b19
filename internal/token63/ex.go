package token63

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EXFrame carries a DUKPT-encrypted data block: tag, KSN, a declared
// ciphertext length, the ciphertext itself, a CRC, and trailing filler.
//
// The declared-length field always reads "00008" — an 8-byte, single
// DES-block assertion left over from an earlier single-length key
// scheme — but the ciphertext that follows is always 16 bytes (32 hex
// characters), a full two-block 3DES-width payload. DeclaredLength and
// len(Ciphertext) are expected to disagree on every frame; callers must
// size their buffers from len(Ciphertext), never from DeclaredLength.
type EXFrame struct {
	Ksn            []byte
	DeclaredLength int
	Ciphertext     []byte
	Crc            string
}

const (
	exKsnFrom          = 5
	exKsnUntil         = 24
	exLenFrom          = 25
	exLenUntil         = 29
	exCipherFrom       = 30
	exCipherUntil      = 61
	exCrcFrom          = 62
	exCrcUntil         = 69
	exReservedFrom     = 70
	exReservedUntil    = 78
	exDeclaredLenBytes = 8
	exActualLenBytes   = 16
)

// ParseEX parses a `! EX` frame and validates its CRC over the
// ciphertext's uppercase hex.
func ParseEX(raw string) (*EXFrame, error) {
	tag, err := detectTag(raw)
	if err != nil {
		return nil, err
	}
	if tag != TagEX {
		return nil, fmt.Errorf("token63: expected %s frame, got %s", TagEX, tag)
	}
	if err := verifyLength(tag, raw); err != nil {
		return nil, err
	}

	ksnHex, err := extractSubstring(raw, exKsnFrom, exKsnUntil)
	if err != nil {
		return nil, err
	}
	ksn, err := hex.DecodeString(ksnHex)
	if err != nil {
		return nil, fmt.Errorf("token63: EX KSN is not valid hex: %w", err)
	}

	lenStr, err := extractSubstring(raw, exLenFrom, exLenUntil)
	if err != nil {
		return nil, err
	}
	var declared int
	if _, err := fmt.Sscanf(lenStr, "%d", &declared); err != nil {
		return nil, fmt.Errorf("token63: EX length field %q is not numeric: %w", lenStr, err)
	}

	cipherHex, err := extractSubstring(raw, exCipherFrom, exCipherUntil)
	if err != nil {
		return nil, err
	}
	cipher, err := hex.DecodeString(cipherHex)
	if err != nil {
		return nil, fmt.Errorf("token63: EX ciphertext is not valid hex: %w", err)
	}

	crc, err := extractSubstring(raw, exCrcFrom, exCrcUntil)
	if err != nil {
		return nil, err
	}
	if want := frameCrc(cipherHex); want != crc {
		return nil, fmt.Errorf("token63: EX frame CRC mismatch: frame has %s, computed %s", crc, want)
	}

	return &EXFrame{Ksn: ksn, DeclaredLength: declared, Ciphertext: cipher, Crc: crc}, nil
}

// BuildEX renders an EXFrame to its fixed 78-byte wire form. ciphertext
// must be 16 bytes; the length field is always written as "00008"
// regardless, preserving the stale assertion every other frame on the
// wire carries.
func BuildEX(ksn, ciphertext []byte) (string, error) {
	if len(ksn) != 10 {
		return "", fmt.Errorf("token63: EX KSN must be 10 bytes, got %d", len(ksn))
	}
	if len(ciphertext) != exActualLenBytes {
		return "", fmt.Errorf("token63: EX ciphertext must be %d bytes, got %d", exActualLenBytes, len(ciphertext))
	}
	cipherHex := strings.ToUpper(hex.EncodeToString(ciphertext))
	crc := frameCrc(cipherHex)
	reserved := strings.Repeat(" ", exReservedUntil-exReservedFrom+1)
	return string(TagEX) + strings.ToUpper(hex.EncodeToString(ksn)) + lengthField(exDeclaredLenBytes, 5) + cipherHex + crc + reserved, nil
}
