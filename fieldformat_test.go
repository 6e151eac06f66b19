package iso8583

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFormatRejectsEmptyValue(t *testing.T) {
	err := validateFormat(FormatAN, "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestValidateFormatAlpha(t *testing.T) {
	require.NoError(t, validateFormat(FormatA, "HELLOworld"))
	require.Error(t, validateFormat(FormatA, "HELLO1"))
}

func TestValidateFormatNumeric(t *testing.T) {
	require.NoError(t, validateFormat(FormatN, "0123456789"))
	require.Error(t, validateFormat(FormatN, "12A4"))
}

func TestValidateFormatAlphanumeric(t *testing.T) {
	require.NoError(t, validateFormat(FormatAN, "ABC123"))
	require.Error(t, validateFormat(FormatAN, "ABC 123"))
}

func TestValidateFormatBinaryHex(t *testing.T) {
	require.NoError(t, validateFormat(FormatB, "deadBEEF01"))
	require.Error(t, validateFormat(FormatB, "ghij"))
}

func TestValidateFormatANSAcceptsAnything(t *testing.T) {
	require.NoError(t, validateFormat(FormatANS, "!@# anything goes 123"))
}

func TestValidateFormatNSRejectsPurelyAlphabetic(t *testing.T) {
	require.Error(t, validateFormat(FormatNS, "ABCDEF"))
	require.NoError(t, validateFormat(FormatNS, "ABC123"))
	require.NoError(t, validateFormat(FormatNS, "123456"))
}

func TestValidateFormatASRejectsPurelyNumeric(t *testing.T) {
	require.Error(t, validateFormat(FormatAS, "123456"))
	require.NoError(t, validateFormat(FormatAS, "ABC123"))
}

func TestValidateFormatSRejectsPurelyAlphanumeric(t *testing.T) {
	require.Error(t, validateFormat(FormatS, "ABC123"))
	require.NoError(t, validateFormat(FormatS, "ABC-123"))
}

func TestValidateFormatXN(t *testing.T) {
	require.NoError(t, validateFormat(FormatXN, "C123"))
	require.NoError(t, validateFormat(FormatXN, "5123"))
	require.Error(t, validateFormat(FormatXN, "Z123"))
}

func TestNewFieldDefinitionRejectsZeroMaxLen(t *testing.T) {
	_, err := NewFieldDefinition(FormatN, 0, LenFixed)
	require.Error(t, err)
}

func TestNewInferredFieldDefinitionPicksLenModeByMagnitude(t *testing.T) {
	cases := []struct {
		maxLen int
		want   FieldLenMode
	}{
		{9, LenLVAR},
		{10, LenLLVAR},
		{99, LenLLVAR},
		{100, LenLLLVAR},
		{999, LenLLLVAR},
		{1000, LenLLLLVAR},
	}
	for _, c := range cases {
		def, err := NewInferredFieldDefinition(FormatN, c.maxLen)
		require.NoError(t, err)
		require.Equalf(t, c.want, def.LenMode, "maxLen=%d", c.maxLen)
	}
}

func TestFieldDefinitionWithCustomPackerOverridesDefault(t *testing.T) {
	def, err := NewFieldDefinition(FormatN, 8, LenFixed)
	require.NoError(t, err)
	require.IsType(t, NumericFieldPacker{}, def.packer())

	def = def.WithCustomPacker(AsciiPacker{})
	require.IsType(t, AsciiPacker{}, def.packer())
}
