package pcrypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBdk() []byte {
	return []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
}

func testKsn() []byte {
	// device id in the top 59 bits, transaction counter 000001 in the low 21 bits.
	return []byte{0xFF, 0xFF, 0x98, 0x76, 0x54, 0x32, 0x10, 0xE0, 0x00, 0x01}
}

func TestDeriveIpekDeterministic(t *testing.T) {
	bdk := testBdk()
	ksn := testKsn()

	ipek1, err := DeriveIpek(bdk, ksn)
	require.NoError(t, err)
	require.Len(t, ipek1, 16)

	ipek2, err := DeriveIpek(bdk, ksn)
	require.NoError(t, err)
	require.Equal(t, ipek1, ipek2)
}

func TestDeriveIpekRejectsBadLengths(t *testing.T) {
	_, err := DeriveIpek(make([]byte, 10), testKsn())
	require.Error(t, err)

	_, err = DeriveIpek(testBdk(), make([]byte, 5))
	require.Error(t, err)
}

func TestDeriveIpekMasksCounterBits(t *testing.T) {
	bdk := testBdk()
	ksnA := testKsn()
	ksnB := make([]byte, 10)
	copy(ksnB, ksnA)
	ksnB[9] = 0x02 // differs only in the masked-off counter bits

	ipekA, err := DeriveIpek(bdk, ksnA)
	require.NoError(t, err)
	ipekB, err := DeriveIpek(bdk, ksnB)
	require.NoError(t, err)
	require.Equal(t, ipekA, ipekB)
}

func TestDeriveBaseKey(t *testing.T) {
	bdk := testBdk()
	ksn := testKsn()

	ipek, err := DeriveIpek(bdk, ksn)
	require.NoError(t, err)

	baseKey, err := DeriveBaseKey(ipek, ksn)
	require.NoError(t, err)
	require.Len(t, baseKey, 16)

	// Deterministic: same inputs, same output.
	baseKey2, err := DeriveBaseKey(ipek, ksn)
	require.NoError(t, err)
	require.Equal(t, baseKey, baseKey2)

	// A different transaction counter must derive a different base key.
	ksnNext := make([]byte, 10)
	copy(ksnNext, ksn)
	ksnNext[9] = 0x02
	baseKeyNext, err := DeriveBaseKey(ipek, ksnNext)
	require.NoError(t, err)
	require.NotEqual(t, baseKey, baseKeyNext)
}

func TestDeriveBaseKeyRejectsBadLengths(t *testing.T) {
	_, err := DeriveBaseKey(make([]byte, 10), testKsn())
	require.Error(t, err)

	ipek, _ := DeriveIpek(testBdk(), testKsn())
	_, err = DeriveBaseKey(ipek, make([]byte, 3))
	require.Error(t, err)
}

func TestDeriveWorkingKeyVariantsDiffer(t *testing.T) {
	ipek, err := DeriveIpek(testBdk(), testKsn())
	require.NoError(t, err)
	baseKey, err := DeriveBaseKey(ipek, testKsn())
	require.NoError(t, err)

	dataKey, err := DeriveDataKey(baseKey)
	require.NoError(t, err)
	pinKey, err := DerivePinKey(baseKey)
	require.NoError(t, err)
	macKey, err := DeriveMacKey(baseKey)
	require.NoError(t, err)

	require.Len(t, dataKey, 16)
	require.Len(t, pinKey, 16)
	require.Len(t, macKey, 16)
	require.NotEqual(t, dataKey, pinKey)
	require.NotEqual(t, dataKey, macKey)
	require.NotEqual(t, pinKey, macKey)
}

func TestDeriveBaseKeyAndVariantsMatchX924Vector(t *testing.T) {
	bdk, err := hex.DecodeString("0123456789ABCDEFFEDCBA9876543210")
	require.NoError(t, err)
	ksn, err := hex.DecodeString("FFFF9876543210E00008")
	require.NoError(t, err)

	ipek, err := DeriveIpek(bdk, ksn)
	require.NoError(t, err)
	require.Equal(t, "6AC292FAA1315B4D858AB3A3D7D5933A", strings.ToUpper(hex.EncodeToString(ipek)))

	baseKey, err := DeriveBaseKey(ipek, ksn)
	require.NoError(t, err)
	require.Equal(t, "27F66D5244FF62E1AA6F6120EDEB4280", strings.ToUpper(hex.EncodeToString(baseKey)))

	dataKey, err := DeriveDataKey(baseKey)
	require.NoError(t, err)
	require.Equal(t, "C39B2778B058AC376FB18DC906F75CBA", strings.ToUpper(hex.EncodeToString(dataKey)))

	pinKey, err := DerivePinKey(baseKey)
	require.NoError(t, err)
	require.Equal(t, "27F66D5244FF621EAA6F6120EDEB427F", strings.ToUpper(hex.EncodeToString(pinKey)))

	macKey, err := DeriveMacKey(baseKey)
	require.NoError(t, err)
	require.Equal(t, "27F66D5244FF9DE1AA6F6120EDEBBD80", strings.ToUpper(hex.EncodeToString(macKey)))
}

func TestDeriveDataKeyRejectsBadLength(t *testing.T) {
	_, err := DeriveDataKey(make([]byte, 10))
	require.Error(t, err)
}
