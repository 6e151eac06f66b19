// Package token63 implements the proprietary sub-token grammar carried
// inside ISO 8583 field 63: a handful of fixed-width ASCII frames, each
// introduced by a four-character tag ("! EW", "! ER", "! EX", "! ES",
// "! EZ"), each internally laid out by byte offset rather than by its
// own embedded length indicator. Grounded on the teacher's BitValueLength
// extraction helper (length_parse.go, since folded into this package),
// whose 1-based inclusive extractSubstring is the idiom every frame
// parser below reuses.
package token63

import (
	"fmt"
	"strings"

	iso8583 "github.com/ankuron/posauth"
)

// Tag identifies one of the five field-63 sub-token frames.
type Tag string

const (
	TagEW Tag = "! EW"
	TagER Tag = "! ER"
	TagEX Tag = "! EX"
	TagES Tag = "! ES"
	TagEZ Tag = "! EZ"
)

// frameLength is the fixed total character length of each tag's frame,
// the tag itself included. Builders emit exactly this width and parsers
// reject a frame of any other length; there is no outer length prefix to
// trust.
var frameLength = map[Tag]int{
	TagEW: 548,
	TagER: 12,
	TagEX: 78,
	TagES: 70,
	TagEZ: 108,
}

// Len reports a tag's fixed frame width, or 0 for an unknown tag.
func (t Tag) Len() int { return frameLength[t] }

// extractSubstring extracts value[from-1:until] using 1-based, inclusive
// bounds. Kept byte-for-byte in spirit with the BitValueLength extraction
// helper it is adapted from: "from" and "until" are both inclusive
// character positions, not Go slice indices.
func extractSubstring(value string, from, until int) (string, error) {
	if from < 1 || until < 1 {
		return "", fmt.Errorf("token63: invalid indices: from=%d, until=%d (must be >= 1)", from, until)
	}
	if from > until {
		return "", fmt.Errorf("token63: invalid range: from=%d > until=%d", from, until)
	}
	startIdx := from - 1
	endIdx := until
	if startIdx >= len(value) {
		return "", fmt.Errorf("token63: start index %d exceeds value length %d", from, len(value))
	}
	if endIdx > len(value) {
		return "", fmt.Errorf("token63: end index %d exceeds value length %d", until, len(value))
	}
	return value[startIdx:endIdx], nil
}

// detectTag reads the leading 4 characters of raw and maps them to a
// known Tag.
func detectTag(raw string) (Tag, error) {
	if len(raw) < 4 {
		return "", fmt.Errorf("token63: frame too short to carry a tag: %d bytes", len(raw))
	}
	tag := Tag(raw[0:4])
	if _, ok := frameLength[tag]; !ok {
		return "", fmt.Errorf("token63: unrecognized frame tag %q", raw[0:4])
	}
	return tag, nil
}

// verifyLength checks raw is exactly as long as its tag's fixed frame
// width demands.
func verifyLength(tag Tag, raw string) error {
	want := tag.Len()
	if len(raw) != want {
		return fmt.Errorf("token63: %s frame must be %d bytes, got %d", tag, want, len(raw))
	}
	return nil
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func lengthField(n, width int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

// frameCrc computes the envelope CRC the way every tag's trailing CRC
// field is verified: the reflected CRC-32 of the frame's own uppercase
// hex ciphertext payload, not of the raw ciphertext bytes.
func frameCrc(hexPayload string) string {
	return iso8583.Crc32HexUpper([]byte(strings.ToUpper(hexPayload)))
}
