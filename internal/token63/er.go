package token63

import "fmt"

// ERFrame is the shortest sub-token: a tag, a declared-length field that
// claims a 2-character value, and a value that is actually always 3
// characters wide.
//
// The frame is 12 bytes: 4 (tag) + 5 (length field) + 3 (value). The
// length field reads "00002" on the wire — a 2-byte value — but the
// value is extracted by a fixed offset spanning positions 10 through 12,
// three characters, not the two the length field advertises. That
// mismatch is carried forward rather than reconciled: DeclaredLength
// and len(Value) disagree by one character on every well-formed frame.
type ERFrame struct {
	DeclaredLength int
	Value          string
}

const (
	erLenFrom   = 5
	erLenUntil  = 9
	erValueFrom = 10
	erValueUntil = 12
)

// ParseER parses a `! ER` frame, preserving the declared-length vs.
// actual-value-width mismatch rather than papering over it.
func ParseER(raw string) (*ERFrame, error) {
	tag, err := detectTag(raw)
	if err != nil {
		return nil, err
	}
	if tag != TagER {
		return nil, fmt.Errorf("token63: expected %s frame, got %s", TagER, tag)
	}
	if err := verifyLength(tag, raw); err != nil {
		return nil, err
	}

	lenStr, err := extractSubstring(raw, erLenFrom, erLenUntil)
	if err != nil {
		return nil, err
	}
	var declared int
	if _, err := fmt.Sscanf(lenStr, "%d", &declared); err != nil {
		return nil, fmt.Errorf("token63: ER length field %q is not numeric: %w", lenStr, err)
	}

	value, err := extractSubstring(raw, erValueFrom, erValueUntil)
	if err != nil {
		return nil, err
	}

	return &ERFrame{DeclaredLength: declared, Value: value}, nil
}

// BuildER renders an ERFrame to its fixed 12-byte wire form. The length
// field is always written as "00002" regardless of value's actual
// length, matching what every `! ER` frame observed on the wire does.
func BuildER(value string) (string, error) {
	if len(value) != 3 {
		return "", fmt.Errorf("token63: ER value must be 3 bytes, got %d", len(value))
	}
	return string(TagER) + "00002" + value, nil
}
