package token63

import "fmt"

// EWFrame is the outer envelope frame: tag, a declared-length field, a
// variable payload, and a trailing CRC over the payload's uppercase hex.
type EWFrame struct {
	DeclaredLength int
	Payload        string
	Crc            string
}

const (
	ewPayloadWidth = 531
	ewTagUntil     = 4
	ewLenFrom      = 5
	ewLenUntil     = 9
	ewPayloadFrom  = 10
	ewPayloadUntil = 9 + ewPayloadWidth // 540
	ewCrcFrom      = ewPayloadUntil + 1 // 541
	ewCrcUntil     = TagEW_Len          // 548
)

// TagEW_Len is exported for callers that want the fixed frame width
// without reaching into the package-private frameLength table.
const TagEW_Len = 548

// ParseEW parses a `! EW` frame and validates its CRC against the
// payload's uppercase hex. The declared length field is returned as
// DeclaredLength; it is not compared with the payload width.
func ParseEW(raw string) (*EWFrame, error) {
	tag, err := detectTag(raw)
	if err != nil {
		return nil, err
	}
	if tag != TagEW {
		return nil, fmt.Errorf("token63: expected %s frame, got %s", TagEW, tag)
	}
	if err := verifyLength(tag, raw); err != nil {
		return nil, err
	}

	lenStr, err := extractSubstring(raw, ewLenFrom, ewLenUntil)
	if err != nil {
		return nil, err
	}
	var declared int
	if _, err := fmt.Sscanf(lenStr, "%d", &declared); err != nil {
		return nil, fmt.Errorf("token63: EW length field %q is not numeric: %w", lenStr, err)
	}

	payload, err := extractSubstring(raw, ewPayloadFrom, ewPayloadUntil)
	if err != nil {
		return nil, err
	}
	crc, err := extractSubstring(raw, ewCrcFrom, ewCrcUntil)
	if err != nil {
		return nil, err
	}

	if want := frameCrc(payload); want != crc {
		return nil, fmt.Errorf("token63: EW frame CRC mismatch: frame has %s, computed %s", crc, want)
	}

	return &EWFrame{DeclaredLength: declared, Payload: payload, Crc: crc}, nil
}

// BuildEW renders an EWFrame back into its fixed 548-byte wire form,
// computing the trailing CRC from payload.
func BuildEW(payload string) (string, error) {
	if len(payload) > ewPayloadWidth {
		return "", fmt.Errorf("token63: EW payload exceeds %d bytes: got %d", ewPayloadWidth, len(payload))
	}
	padded := padRight(payload, ewPayloadWidth)
	crc := frameCrc(padded)
	return string(TagEW) + lengthField(len(payload), 5) + padded + crc, nil
}
