package client

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/blackoreo/namwatch/borsh"
	"github.com/blackoreo/namwatch/types"
)

func requireDecodeError(t *testing.T, err error, kind DecodeErrorKind) {
	t.Helper()
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, kind, de.Kind)
}

func TestDecodeValidatorState(t *testing.T) {
	t.Run("known discriminants", func(t *testing.T) {
		for tag, want := range map[uint8]types.ValidatorState{
			0: types.StateConsensus,
			1: types.StateBelowCapacity,
			2: types.StateBelowThreshold,
			3: types.StateInactive,
			4: types.StateJailed,
		} {
			state, err := DecodeValidatorState(borsh.NewEncoder().Option(true).Uint8(tag).Bytes())
			require.NoError(t, err)
			require.Equal(t, want, state)
		}
	})

	t.Run("unknown discriminant is forward compatible", func(t *testing.T) {
		state, err := DecodeValidatorState(borsh.NewEncoder().Option(true).Uint8(9).Bytes())
		require.NoError(t, err)
		require.Equal(t, types.StateUnknown, state)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeValidatorState(nil)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = DecodeValidatorState(borsh.NewEncoder().Option(false).Bytes())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid option tag", func(t *testing.T) {
		_, err := DecodeValidatorState([]byte{0x02, 0x00})
		requireDecodeError(t, err, KindInvalidDiscriminant)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeValidatorState(borsh.NewEncoder().Option(true).Uint8(0).Uint8(0).Bytes())
		requireDecodeError(t, err, KindLengthMismatch)
	})
}

func TestDecodeCommission(t *testing.T) {
	rate := types.DecFromScaled(50_000_000_000)       // 0.05
	maxChange := types.DecFromScaled(10_000_000_000)  // 0.01
	overOne := types.DecFromScaled(types.DecScale + 1)

	t.Run("ok", func(t *testing.T) {
		pair, err := DecodeCommission(borsh.NewEncoder().Option(true).Dec(rate).Dec(maxChange).Bytes())
		require.NoError(t, err)
		require.Equal(t, rate, pair.Rate)
		require.Equal(t, maxChange, pair.MaxChangePerEpoch)
	})

	t.Run("rate of exactly one is valid", func(t *testing.T) {
		pair, err := DecodeCommission(borsh.NewEncoder().Option(true).Dec(types.DecOne()).Dec(maxChange).Bytes())
		require.NoError(t, err)
		require.Equal(t, types.DecOne(), pair.Rate)
	})

	t.Run("rate above one is rejected, not clamped", func(t *testing.T) {
		_, err := DecodeCommission(borsh.NewEncoder().Option(true).Dec(overOne).Dec(maxChange).Bytes())
		requireDecodeError(t, err, KindOutOfRange)
	})

	t.Run("negative rate", func(t *testing.T) {
		negative := make([]byte, 32)
		negative[31] = 0x80
		_, err := DecodeCommission(borsh.NewEncoder().Option(true).Raw(negative).Dec(maxChange).Bytes())
		requireDecodeError(t, err, KindOutOfRange)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeCommission(borsh.NewEncoder().Option(true).Dec(rate).Bytes())
		requireDecodeError(t, err, KindLengthMismatch)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeCommission(nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDecodeValidatorMetadata(t *testing.T) {
	t.Run("all fields set", func(t *testing.T) {
		meta, err := DecodeValidatorMetadata(borsh.NewEncoder().Option(true).
			String("ops@validator.example").
			Option(true).String("a validator").
			Option(true).String("https://validator.example").
			Option(true).String("validator#1234").
			Option(true).String("https://validator.example/avatar.png").
			Bytes())
		require.NoError(t, err)
		require.Equal(t, types.ValidatorMetadata{
			Email:         "ops@validator.example",
			Description:   "a validator",
			Website:       "https://validator.example",
			DiscordHandle: "validator#1234",
			Avatar:        "https://validator.example/avatar.png",
		}, meta)
	})

	t.Run("only the mandatory email", func(t *testing.T) {
		meta, err := DecodeValidatorMetadata(borsh.NewEncoder().Option(true).
			String("ops@validator.example").
			Option(false).Option(false).Option(false).Option(false).
			Bytes())
		require.NoError(t, err)
		require.Equal(t, types.ValidatorMetadata{Email: "ops@validator.example"}, meta)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeValidatorMetadata(nil)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = DecodeValidatorMetadata(borsh.NewEncoder().Option(false).Bytes())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("truncated optional field", func(t *testing.T) {
		_, err := DecodeValidatorMetadata(borsh.NewEncoder().Option(true).
			String("ops@validator.example").
			Option(true).
			Bytes())
		requireDecodeError(t, err, KindLengthMismatch)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeValidatorMetadata(borsh.NewEncoder().Option(true).
			String("ops@validator.example").
			Option(false).Option(false).Option(false).Option(false).
			Uint8(0).
			Bytes())
		requireDecodeError(t, err, KindLengthMismatch)
	})
}

func TestDecodeStake(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		stake, err := DecodeStake(borsh.NewEncoder().Option(true).Uint256(uint256.NewInt(123456)).Bytes())
		require.NoError(t, err)
		require.EqualValues(t, 123456, stake)
	})

	t.Run("amount over 64 bits", func(t *testing.T) {
		huge := uint256.MustFromDecimal("18446744073709551616") // 2^64
		_, err := DecodeStake(borsh.NewEncoder().Option(true).Uint256(huge).Bytes())
		requireDecodeError(t, err, KindOutOfRange)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeStake(nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDecodeConsensusKey(t *testing.T) {
	t.Run("ed25519", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xab}, 32)
		addr, err := DecodeConsensusKey(borsh.NewEncoder().Option(true).Uint8(0).Raw(key).Bytes())
		require.NoError(t, err)
		require.True(t, addr.IsPublicKey())
		require.Equal(t, append([]byte{0}, key...), addr.Payload())
	})

	t.Run("secp256k1", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xcd}, 33)
		addr, err := DecodeConsensusKey(borsh.NewEncoder().Option(true).Uint8(1).Raw(key).Bytes())
		require.NoError(t, err)
		require.True(t, addr.IsPublicKey())
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := DecodeConsensusKey(borsh.NewEncoder().Option(true).Uint8(2).Raw(make([]byte, 32)).Bytes())
		requireDecodeError(t, err, KindInvalidDiscriminant)
	})

	t.Run("truncated key", func(t *testing.T) {
		_, err := DecodeConsensusKey(borsh.NewEncoder().Option(true).Uint8(0).Raw(make([]byte, 31)).Bytes())
		requireDecodeError(t, err, KindLengthMismatch)
	})
}

func TestDecodeOperatorAddress(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		addr, err := DecodeOperatorAddress(borsh.NewEncoder().Option(true).String(testAddr).Bytes())
		require.NoError(t, err)
		require.Equal(t, testAddr, addr.String())
	})

	t.Run("embedded address fails validation", func(t *testing.T) {
		corrupted := testAddr[:len(testAddr)-1] + "q"
		_, err := DecodeOperatorAddress(borsh.NewEncoder().Option(true).String(corrupted).Bytes())
		requireDecodeError(t, err, KindInvalidAddress)
	})
}

func TestDecodeEpoch(t *testing.T) {
	epoch, err := DecodeEpoch(borsh.NewEncoder().Uint64(42).Bytes())
	require.NoError(t, err)
	require.EqualValues(t, 42, epoch)

	_, err = DecodeEpoch(nil)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = DecodeEpoch(borsh.NewEncoder().Uint32(42).Bytes())
	requireDecodeError(t, err, KindLengthMismatch)

	_, err = DecodeEpoch(borsh.NewEncoder().Uint64(42).Uint8(0).Bytes())
	requireDecodeError(t, err, KindLengthMismatch)
}

func encodeProposalHeader(id uint64) *borsh.Encoder {
	return borsh.NewEncoder().
		Option(true).
		Uint64(id).
		StringMap(map[string]string{"title": "upgrade", "abstract": "changes things"}).
		String(testAddr)
}

func TestDecodeProposal(t *testing.T) {
	t.Run("default proposal with code hash", func(t *testing.T) {
		hash := bytes.Repeat([]byte{0x1f}, 32)
		data := encodeProposalHeader(7).
			Uint8(0).Option(true).Raw(hash). // type: default with wasm hash
			Uint64(10).Uint64(20).Uint64(22).
			Bytes()

		p, err := DecodeProposal(data)
		require.NoError(t, err)
		require.EqualValues(t, 7, p.ID)
		require.Equal(t, "upgrade", p.Content["title"])
		require.Equal(t, testAddr, p.Author.String())
		require.Equal(t, types.ProposalTypeDefault, p.Type)
		require.Equal(t, fmt.Sprintf("Hash: %X", hash), p.Data)
		require.EqualValues(t, 10, p.VotingStartEpoch)
		require.EqualValues(t, 20, p.VotingEndEpoch)
		require.EqualValues(t, 22, p.ActivationEpoch)
		// status resolution is the caller's job
		require.Equal(t, types.ProposalUnknown, p.Status)
	})

	t.Run("default proposal without payload", func(t *testing.T) {
		data := encodeProposalHeader(8).
			Uint8(0).Option(false).
			Uint64(10).Uint64(20).Uint64(22).
			Bytes()

		p, err := DecodeProposal(data)
		require.NoError(t, err)
		require.Equal(t, types.ProposalTypeDefault, p.Type)
		require.Empty(t, p.Data)
	})

	t.Run("pgf steward proposal", func(t *testing.T) {
		data := encodeProposalHeader(9).
			Uint8(1).SeqLen(2).
			Uint8(0).String(testAddr). // add
			Uint8(1).String(testAddr). // remove
			Uint64(10).Uint64(20).Uint64(22).
			Bytes()

		p, err := DecodeProposal(data)
		require.NoError(t, err)
		require.Equal(t, types.ProposalTypePGFSteward, p.Type)
		require.Equal(t, fmt.Sprintf("Add(%s), Remove(%s)", testAddr, testAddr), p.Data)
	})

	t.Run("pgf payment proposal", func(t *testing.T) {
		amount := uint256.NewInt(1_000_000)
		data := encodeProposalHeader(10).
			Uint8(2).SeqLen(2).
			Uint8(0).Uint8(0).Uint8(0).String(testAddr).Uint256(amount). // continuous add, internal target
			Uint8(1).Uint8(1).String("cosmos1xyz").Uint256(amount).      // retro, ibc target
			Uint64(10).Uint64(20).Uint64(22).
			Bytes()

		p, err := DecodeProposal(data)
		require.NoError(t, err)
		require.Equal(t, types.ProposalTypePGFPayment, p.Type)
		require.Equal(t, fmt.Sprintf("Add(%s), Retro(cosmos1xyz)", testAddr), p.Data)
	})

	t.Run("unknown proposal type", func(t *testing.T) {
		data := encodeProposalHeader(11).Uint8(3).Bytes()
		_, err := DecodeProposal(data)
		requireDecodeError(t, err, KindInvalidDiscriminant)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeProposal(nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDecodeVotes(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		data := borsh.NewEncoder().
			SeqLen(2).
			String(testAddr).String(testAddr).Uint8(0).
			String(testAddr).String(testAddr).Uint8(2).
			Bytes()

		votes, err := DecodeVotes(data)
		require.NoError(t, err)
		require.Len(t, votes, 2)
		require.Equal(t, types.VoteYay, votes[0].Value)
		require.Equal(t, types.VoteAbstain, votes[1].Value)
		require.Equal(t, testAddr, votes[0].Validator.String())
	})

	t.Run("no votes cast is a valid response", func(t *testing.T) {
		votes, err := DecodeVotes(borsh.NewEncoder().SeqLen(0).Bytes())
		require.NoError(t, err)
		require.Empty(t, votes)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeVotes(nil)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid vote value", func(t *testing.T) {
		data := borsh.NewEncoder().SeqLen(1).String(testAddr).String(testAddr).Uint8(3).Bytes()
		_, err := DecodeVotes(data)
		requireDecodeError(t, err, KindInvalidDiscriminant)
	})
}

func TestDecodeProposalResult(t *testing.T) {
	tally := func(result, tallyType uint8) []byte {
		return borsh.NewEncoder().
			Option(true).
			Uint8(result).Uint8(tallyType).
			Uint256(uint256.NewInt(3000)).
			Uint256(uint256.NewInt(2000)).
			Uint256(uint256.NewInt(500)).
			Uint256(uint256.NewInt(100)).
			Bytes()
	}

	t.Run("passed", func(t *testing.T) {
		r, err := DecodeProposalResult(tally(0, 1))
		require.NoError(t, err)
		require.Equal(t, types.TallyPassed, r.Result)
		require.Equal(t, types.TallyOneHalfOverOneThird, r.TallyType)
		require.Equal(t, types.ProposalPassed, r.Status())
		require.EqualValues(t, 2000, r.TotalYay.Uint64())
	})

	t.Run("rejected", func(t *testing.T) {
		r, err := DecodeProposalResult(tally(1, 0))
		require.NoError(t, err)
		require.Equal(t, types.ProposalRejected, r.Status())
	})

	t.Run("invalid result tag", func(t *testing.T) {
		_, err := DecodeProposalResult(tally(2, 0))
		requireDecodeError(t, err, KindInvalidDiscriminant)
	})

	t.Run("invalid tally type", func(t *testing.T) {
		_, err := DecodeProposalResult(tally(0, 3))
		requireDecodeError(t, err, KindInvalidDiscriminant)
	})

	t.Run("absent key", func(t *testing.T) {
		_, err := DecodeProposalResult(nil)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
