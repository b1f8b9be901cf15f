package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorStateFromDiscriminant(t *testing.T) {
	require.Equal(t, StateConsensus, ValidatorStateFromDiscriminant(0))
	require.Equal(t, StateBelowCapacity, ValidatorStateFromDiscriminant(1))
	require.Equal(t, StateBelowThreshold, ValidatorStateFromDiscriminant(2))
	require.Equal(t, StateInactive, ValidatorStateFromDiscriminant(3))
	require.Equal(t, StateJailed, ValidatorStateFromDiscriminant(4))
	// discriminants from future chain versions must not fail
	require.Equal(t, StateUnknown, ValidatorStateFromDiscriminant(5))
	require.Equal(t, StateUnknown, ValidatorStateFromDiscriminant(255))
}

func TestValidatorState_String(t *testing.T) {
	require.Equal(t, "Consensus", StateConsensus.String())
	require.Equal(t, "Jailed", StateJailed.String())
	require.Equal(t, "Unknown", StateUnknown.String())
	require.Equal(t, "Unknown", ValidatorState(77).String())
}

func TestParseTMAddress(t *testing.T) {
	const hexAddr = "B54F747973A17B6D47264077090A347B65CDD472"

	addr, err := ParseTMAddress(hexAddr)
	require.NoError(t, err)
	require.Equal(t, hexAddr, addr.String())

	// case insensitive, canonical form is upper case
	addr, err = ParseTMAddress(strings.ToLower(hexAddr))
	require.NoError(t, err)
	require.Equal(t, hexAddr, addr.String())

	_, err = ParseTMAddress(hexAddr[:38])
	require.ErrorContains(t, err, "invalid consensus address length")

	_, err = ParseTMAddress("not hex at all not hex at all not hex at")
	require.ErrorContains(t, err, "invalid consensus address")
}

func TestValidatorRecord_Equal(t *testing.T) {
	addr, err := DecodeAddress(validAddr)
	require.NoError(t, err)

	rec := &ValidatorRecord{
		Address:     addr,
		State:       StateConsensus,
		Commission:  DecFromScaled(50_000_000_000),
		VotingPower: 1000,
	}
	require.True(t, rec.Equal(rec))

	other := *rec
	require.True(t, rec.Equal(&other))

	other.State = StateJailed
	require.False(t, rec.Equal(&other))

	other = *rec
	other.Commission = DecFromScaled(50_000_000_001)
	require.False(t, rec.Equal(&other))

	require.False(t, rec.Equal(nil))
	var nilRec *ValidatorRecord
	require.True(t, nilRec.Equal(nil))
}
