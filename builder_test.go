package iso8583

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderFluentBuild(t *testing.T) {
	b := NewBuilder(WithRegistry(StandardRegistry))
	msg, err := b.MTI("0200").
		PAN("5500000000000004").
		ProcessingCode("000000").
		Amount("000000010000").
		STAN("000001").
		Build()
	require.NoError(t, err)
	defer msg.Release()

	require.Equal(t, "0200", msg.MTI())
	pan, err := msg.GetField(2)
	require.NoError(t, err)
	require.Equal(t, "5500000000000004", pan)
}

func TestBuilderCollectsFirstError(t *testing.T) {
	b := NewBuilder(WithRegistry(StandardRegistry))
	_, err := b.MTI("0200").
		PAN("not-numeric").
		Amount("000000010000").
		Build()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadFormat)
	b.Release()
}

func TestBuilderMustBuildPanicsOnError(t *testing.T) {
	b := NewBuilder(WithRegistry(StandardRegistry))
	defer b.Release()
	b.Field(999, "x")
	require.Panics(t, func() { b.MustBuild() })
}
