package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecFromLEBytes(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		// 0.05 scaled by 10^12
		d := DecFromScaled(50_000_000_000)
		decoded, err := DecFromLEBytes(d.LEBytes())
		require.NoError(t, err)
		require.Equal(t, d, decoded)
	})

	t.Run("zero", func(t *testing.T) {
		d, err := DecFromLEBytes(make([]byte, 32))
		require.NoError(t, err)
		require.True(t, d.IsZero())
	})

	t.Run("wrong width", func(t *testing.T) {
		_, err := DecFromLEBytes(make([]byte, 31))
		require.ErrorContains(t, err, "expected 32 decimal bytes")
		_, err = DecFromLEBytes(make([]byte, 33))
		require.ErrorContains(t, err, "expected 32 decimal bytes")
	})

	t.Run("negative value", func(t *testing.T) {
		data := make([]byte, 32)
		data[31] = 0x80
		_, err := DecFromLEBytes(data)
		require.ErrorIs(t, err, ErrDecOutOfRange)
	})

	t.Run("scaled value over 64 bits", func(t *testing.T) {
		data := make([]byte, 32)
		data[8] = 1 // 2^64
		_, err := DecFromLEBytes(data)
		require.ErrorIs(t, err, ErrDecOutOfRange)
	})
}

func TestDec_String(t *testing.T) {
	cases := []struct {
		scaled uint64
		str    string
	}{
		{0, "0"},
		{DecScale, "1"},
		{50_000_000_000, "0.05"},
		{DecScale + DecScale/10, "1.1"},
		{123_456_789_012, "0.123456789012"},
		{5 * DecScale, "5"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.str, DecFromScaled(tc.scaled).String(), "scaled value %d", tc.scaled)
	}
}

func TestDec_Cmp(t *testing.T) {
	require.Equal(t, 0, DecOne().Cmp(DecFromScaled(DecScale)))
	require.Equal(t, -1, DecFromScaled(1).Cmp(DecOne()))
	require.Equal(t, 1, DecOne().Cmp(DecFromScaled(1)))
}

func TestDec_Float64(t *testing.T) {
	require.InEpsilon(t, 0.05, DecFromScaled(50_000_000_000).Float64(), 1e-12)
	require.Zero(t, Dec{}.Float64())
}

func TestDec_BinaryMarshaling(t *testing.T) {
	d := DecFromScaled(987_654_321_012)
	data, err := d.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 8)

	var decoded Dec
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, d, decoded)

	require.ErrorContains(t, decoded.UnmarshalBinary(data[:7]), "expected 8 bytes")
}
