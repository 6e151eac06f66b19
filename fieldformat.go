package iso8583

import "regexp"

// FieldFormat is the closed set of ISO 8583 data-element formats this
// codec understands. Expanded from the teacher's narrower FieldType
// (ANS, AN, N, B, Z, Custom — see the now-removed constant.go) to the full
// set spec.md §3 names.
type FieldFormat int

const (
	FormatA FieldFormat = iota
	FormatN
	FormatS
	FormatAN
	FormatAS
	FormatNS
	FormatANS
	FormatB
	FormatXN
	FormatZ
)

// FieldLenMode governs how a field's length is carried on the wire.
// For variable modes, Ordinal() is also the number of decimal digits in
// the length prefix.
type FieldLenMode int

const (
	LenFixed FieldLenMode = iota
	LenLVAR
	LenLLVAR
	LenLLLVAR
	LenLLLLVAR
)

// Ordinal returns the decimal-digit width of the length prefix for
// variable modes (1 for LVAR .. 4 for LLLLVAR); FIXED has no prefix.
func (m FieldLenMode) Ordinal() int {
	switch m {
	case LenLVAR:
		return 1
	case LenLLVAR:
		return 2
	case LenLLLVAR:
		return 3
	case LenLLLLVAR:
		return 4
	default:
		return 0
	}
}

// lenModeForMaxLength picks the length mode implied by maxLen alone, used
// when a FieldDefinition is built without an explicit mode.
func lenModeForMaxLength(maxLen int) FieldLenMode {
	switch {
	case maxLen <= 9:
		return LenLVAR
	case maxLen <= 99:
		return LenLLVAR
	case maxLen <= 999:
		return LenLLLVAR
	default:
		return LenLLLLVAR
	}
}

// formatRegexes validate a field's textual value per spec.md §4.3.
var formatRegexes = map[FieldFormat]*regexp.Regexp{
	FormatA:   regexp.MustCompile(`^[A-Za-z]+$`),
	FormatN:   regexp.MustCompile(`^[0-9]+$`),
	FormatAN:  regexp.MustCompile(`^[A-Za-z0-9]+$`),
	FormatB:   regexp.MustCompile(`^[A-Fa-f0-9]+$`),
	FormatXN:  regexp.MustCompile(`^[cdCD0-9][0-9]+$`),
	FormatANS: nil, // any value accepted
}

// validateFormat checks value against format's rule. ANS accepts anything;
// NS/Z reject purely-alphabetic values; AS rejects purely-numeric values;
// S rejects purely-alphanumeric values (must contain something else).
func validateFormat(format FieldFormat, value string) error {
	if value == "" {
		return newErr(KindBadFormat, 0, errEmptyValue)
	}
	switch format {
	case FormatA, FormatN, FormatAN, FormatB, FormatXN:
		if !formatRegexes[format].MatchString(value) {
			return newErr(KindBadFormat, 0, errFormatMismatch)
		}
	case FormatANS:
		return nil
	case FormatNS, FormatZ:
		if isPurelyAlphabetic(value) {
			return newErr(KindBadFormat, 0, errFormatMismatch)
		}
	case FormatAS:
		if isPurelyNumeric(value) {
			return newErr(KindBadFormat, 0, errFormatMismatch)
		}
	case FormatS:
		if isPurelyAlphanumeric(value) {
			return newErr(KindBadFormat, 0, errFormatMismatch)
		}
	}
	return nil
}

func isPurelyAlphabetic(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}

func isPurelyNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isPurelyAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// FieldDefinition describes the wire shape of a single data element:
// its format, maximum length, length-prefix mode, and an optional
// override packer (see packer.go).
type FieldDefinition struct {
	Format      FieldFormat
	MaxLen      int
	LenMode     FieldLenMode
	CustomPacker FieldPacker
}

// NewFieldDefinition builds a definition with an explicit length mode.
// MaxLen must be >= 1.
func NewFieldDefinition(format FieldFormat, maxLen int, lenMode FieldLenMode) (FieldDefinition, error) {
	if maxLen < 1 {
		return FieldDefinition{}, newErr(KindBadRegistry, 0, errBadMaxLen)
	}
	return FieldDefinition{Format: format, MaxLen: maxLen, LenMode: lenMode}, nil
}

// NewInferredFieldDefinition builds a definition whose length mode is
// chosen from maxLen's magnitude (1-9 LVAR, 10-99 LLVAR, 100-999 LLLVAR,
// >=1000 LLLLVAR), matching spec.md §3's FieldDefinition invariant.
func NewInferredFieldDefinition(format FieldFormat, maxLen int) (FieldDefinition, error) {
	if maxLen < 1 {
		return FieldDefinition{}, newErr(KindBadRegistry, 0, errBadMaxLen)
	}
	return FieldDefinition{Format: format, MaxLen: maxLen, LenMode: lenModeForMaxLength(maxLen)}, nil
}

// WithCustomPacker returns a copy of the definition overriding its packer.
func (d FieldDefinition) WithCustomPacker(p FieldPacker) FieldDefinition {
	d.CustomPacker = p
	return d
}

// packer resolves the effective FieldPacker for this definition: the
// custom override if set, otherwise the format's default strategy.
func (d FieldDefinition) packer() FieldPacker {
	if d.CustomPacker != nil {
		return d.CustomPacker
	}
	return defaultPackers[d.Format]
}

var (
	errEmptyValue     = errSentinel("empty value")
	errFormatMismatch = errSentinel("value does not match field format")
	errBadMaxLen      = errSentinel("maxLen must be >= 1")
)
