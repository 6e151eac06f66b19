package iso8583

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessagePackUnpackRoundTrip(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()

	require.NoError(t, msg.SetMTI("0200"))
	require.NoError(t, msg.SetField(2, "5500000000000004"))
	require.NoError(t, msg.SetField(3, "000000"))
	require.NoError(t, msg.SetField(4, "000000010000"))
	require.NoError(t, msg.SetField(11, "000001"))

	raw, err := msg.Pack()
	require.NoError(t, err)

	unpacked := NewIsoMessage(WithRegistry(StandardRegistry))
	defer unpacked.Release()
	require.NoError(t, unpacked.Unpack(raw))

	require.Equal(t, "0200", unpacked.MTI())
	pan, err := unpacked.GetField(2)
	require.NoError(t, err)
	require.Equal(t, "5500000000000004", pan)

	amount, err := unpacked.GetField(4)
	require.NoError(t, err)
	require.Equal(t, "000000010000", amount)
}

func TestMessageRoundTripWithSecondaryBitmap(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()

	require.NoError(t, msg.SetMTI("0800"))
	require.NoError(t, msg.SetField(41, "TERM0001"))
	require.NoError(t, msg.SetField(128, "00112233"))

	raw, err := msg.Pack()
	require.NoError(t, err)

	unpacked := NewIsoMessage(WithRegistry(StandardRegistry))
	defer unpacked.Release()
	require.NoError(t, unpacked.Unpack(raw))
	require.True(t, unpacked.HasField(128))
	v, err := unpacked.GetField(128)
	require.NoError(t, err)
	require.Equal(t, "00112233", v)
}

func TestSetFieldRejectsUnregisteredField(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	err := msg.SetField(999, "x")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadField)
}

func TestSetFieldRejectsFieldBelowTwo(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	err := msg.SetField(1, "x")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadField)
}

func TestSetFieldRejectsBadFormat(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	err := msg.SetField(2, "not-a-pan")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestSetBinaryFieldHexEncodes(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	require.NoError(t, msg.SetBinaryField(52, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0}))
	v, err := msg.GetField(52)
	require.NoError(t, err)
	require.Equal(t, "deadbeef00000000", v)
}

func TestPackFailsWithoutMTI(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	_, err := msg.Pack()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadMti)
}

func TestPackFailsWithoutRegistry(t *testing.T) {
	msg := NewIsoMessage()
	defer msg.Release()
	require.NoError(t, msg.SetMTI("0200"))
	_, err := msg.Pack()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadRegistry)
}

func TestRemoveFieldAndClear(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	require.NoError(t, msg.SetMTI("0200"))
	require.NoError(t, msg.SetField(2, "5500000000000004"))
	msg.RemoveField(2)
	require.False(t, msg.HasField(2))

	require.NoError(t, msg.SetField(2, "5500000000000004"))
	msg.Clear()
	require.Empty(t, msg.MTI())
	require.False(t, msg.HasField(2))
}

func TestPresentFieldsIsSorted(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	require.NoError(t, msg.SetField(11, "000001"))
	require.NoError(t, msg.SetField(2, "5500000000000004"))
	require.NoError(t, msg.SetField(4, "000000010000"))
	require.Equal(t, []int{2, 4, 11}, msg.PresentFields())
}

func TestMessageReleaseAndReuseFromPool(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	require.NoError(t, msg.SetField(2, "5500000000000004"))
	msg.Release()

	reused := NewIsoMessage(WithRegistry(StandardRegistry))
	defer reused.Release()
	require.False(t, reused.HasField(2))
}

func TestLogValueMasksSensitiveFields(t *testing.T) {
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	require.NoError(t, msg.SetMTI("0200"))
	require.NoError(t, msg.SetField(2, "5500000000000004"))

	val := msg.LogValue()
	group := val.Group()
	var found bool
	for _, attr := range group {
		if attr.Key == "field_2" {
			found = true
			require.NotEqual(t, "5500000000000004", attr.Value.String())
			require.Contains(t, attr.Value.String(), "*")
		}
	}
	require.True(t, found)
}
