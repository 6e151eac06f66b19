package iso8583

// FieldPacker converts a field's textual value to and from its wire
// representation. Adapted from the teacher's Packager abstraction
// (packager.go), narrowed to the three conversions each strategy
// actually needs.
type FieldPacker interface {
	// pack converts a validated textual value into wire bytes.
	pack(text string) ([]byte, error)
	// unpack converts wire bytes back into a textual value.
	unpack(b []byte) (string, error)
	// packedLen returns the number of wire bytes produced by a value of
	// the given textual length, used to size LVAR/LLVAR/... reads and
	// FIXED-field wire widths without actually packing.
	packedLen(textLen int) int
}

// AsciiPacker carries the text as-is, one byte per character.
type AsciiPacker struct{}

func (AsciiPacker) pack(text string) ([]byte, error) { return []byte(text), nil }
func (AsciiPacker) unpack(b []byte) (string, error)  { return string(b), nil }
func (AsciiPacker) packedLen(textLen int) int        { return textLen }

// BinaryPacker carries a hex-digit string as raw bytes, two hex digits
// per byte (format B). packedLen rounds up for an odd digit count, per
// spec.md §4.3's "ceil(n/2)" rule.
type BinaryPacker struct{}

func (BinaryPacker) pack(text string) ([]byte, error) { return hexToBytes(text) }
func (BinaryPacker) unpack(b []byte) (string, error)  { return bytesToHex(b), nil }
func (BinaryPacker) packedLen(textLen int) int        { return (textLen + 1) / 2 }

// BcdPackedUnsignedPacker packs a decimal digit string two digits per
// byte, with no sign nibble.
type BcdPackedUnsignedPacker struct{}

func (BcdPackedUnsignedPacker) pack(text string) ([]byte, error) {
	return strToBcdPackedUnsigned(text)
}
func (BcdPackedUnsignedPacker) unpack(b []byte) (string, error) {
	return bcdPackedUnsignedToStr(b), nil
}
func (BcdPackedUnsignedPacker) packedLen(textLen int) int { return (textLen + 1) / 2 }

// BcdPackedSignedPacker packs a decimal digit string with an optional
// leading sign, dropping the sign nibble whenever the digit count is
// even (see strToBcdPackedSigned).
type BcdPackedSignedPacker struct{}

func (BcdPackedSignedPacker) pack(text string) ([]byte, error) {
	return strToBcdPackedSigned(text)
}
func (BcdPackedSignedPacker) unpack(b []byte) (string, error) {
	return bcdPackedSignedToStr(b), nil
}
func (BcdPackedSignedPacker) packedLen(textLen int) int { return (textLen + 1) / 2 }

// NumericFieldPacker wire-packs as unsigned BCD but unpacks by stripping
// leading zeros, collapsing an all-zero value down to "0" (used for
// amounts and counters where the textual value should not carry a wire
// artifact of its fixed width).
type NumericFieldPacker struct{}

func (NumericFieldPacker) pack(text string) ([]byte, error) {
	return strToBcdPackedUnsigned(text)
}

func (NumericFieldPacker) unpack(b []byte) (string, error) {
	s := bcdPackedUnsignedToStr(b)
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:], nil
}

func (NumericFieldPacker) packedLen(textLen int) int { return (textLen + 1) / 2 }

// defaultPackers maps each FieldFormat to the packer it uses absent a
// CustomPacker override on the FieldDefinition.
var defaultPackers = map[FieldFormat]FieldPacker{
	FormatA:   AsciiPacker{},
	FormatN:   NumericFieldPacker{},
	FormatS:   AsciiPacker{},
	FormatAN:  AsciiPacker{},
	FormatAS:  AsciiPacker{},
	FormatNS:  AsciiPacker{},
	FormatANS: AsciiPacker{},
	FormatB:   BinaryPacker{},
	FormatXN:  BcdPackedSignedPacker{},
	FormatZ:   AsciiPacker{},
}
