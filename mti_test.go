package iso8583

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMTIRoundTripsForAnyFourDigitString(t *testing.T) {
	inputs := []string{"0200", "0210", "0800", "0810", "1644", "9999", "0000"}
	for _, s := range inputs {
		mti, err := ParseMTI(s)
		require.NoError(t, err)
		require.Equal(t, s, mti.String())
	}
}

func TestParseMTIDecomposesDigits(t *testing.T) {
	mti, err := ParseMTI("0200")
	require.NoError(t, err)
	require.Equal(t, MtiVersion1987, mti.Version)
	require.Equal(t, MtiClassFinancial, mti.Class)
	require.Equal(t, MtiFunctionRequest, mti.Function)
	require.Equal(t, MtiOriginAcquirer, mti.Origin)
}

func TestParseMTIRejectsWrongLength(t *testing.T) {
	_, err := ParseMTI("020")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadMti)

	_, err = ParseMTI("02000")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadMti)
}

func TestParseMTIRejectsNonDigit(t *testing.T) {
	_, err := ParseMTI("02a0")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadMti)
}

func TestWellKnownMTIConstants(t *testing.T) {
	require.Equal(t, "0200", MtiSaleRequest)
	require.Equal(t, "0210", MtiSaleResponse)
	require.Equal(t, "0800", MtiNetworkRequest)
	require.Equal(t, "0810", MtiNetworkResponse)
}
