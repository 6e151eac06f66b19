package iso8583

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCrc32ChecksumMatchesKnownVector(t *testing.T) {
	// The standard CRC-32/ISO-HDLC check value for the ASCII string
	// "123456789" is 0xCBF43926 - same polynomial and reflection this
	// package hand-rolls.
	require.Equal(t, uint32(0xCBF43926), crc32Checksum([]byte("123456789")))
}

func TestCrc32HexUpperIsUppercaseAndEightChars(t *testing.T) {
	hexStr := crc32HexUpper([]byte("123456789"))
	require.Len(t, hexStr, 8)
	require.Equal(t, "CBF43926", hexStr)
}

func TestCrc32HexIsLowercaseCounterpart(t *testing.T) {
	require.Equal(t, "cbf43926", crc32Hex([]byte("123456789")))
}

func TestExportedCrc32WrappersMatchUnexported(t *testing.T) {
	data := []byte("deadbeefcafe")
	require.Equal(t, crc32HexUpper(data), Crc32HexUpper(data))
	require.Equal(t, crc32Hex(data), Crc32Hex(data))
}

func TestCrc32EmptyInput(t *testing.T) {
	require.Equal(t, uint32(0), crc32Checksum(nil))
}
