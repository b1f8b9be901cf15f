package client

import (
	"fmt"
	"strings"

	"github.com/blackoreo/namwatch/borsh"
	"github.com/blackoreo/namwatch/types"
)

/*
Response decoding for each record kind. The conventions shared by all
storage value queries:

  - a zero-length response means the key does not exist: ErrNotFound;
  - optional storage values carry a leading option tag, a "none" tag also
    maps to ErrNotFound;
  - every field's width is validated before it is interpreted, a short
    response is a length-mismatch DecodeError, never a default value;
  - trailing bytes after the last field are a length-mismatch as well.
*/

// optionalValue starts decoding an option-wrapped storage value, mapping
// absence to ErrNotFound.
func optionalValue(data []byte) (*borsh.Decoder, error) {
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	d := borsh.NewDecoder(data)
	present, err := d.Option()
	if err != nil {
		return nil, decodeFailure(err)
	}
	if !present {
		return nil, ErrNotFound
	}
	return d, nil
}

/*
DecodeValidatorState decodes a validator state response. A discriminant
outside the known allow-list decodes to StateUnknown so that responses from
an upgraded chain remain readable.
*/
func DecodeValidatorState(data []byte) (types.ValidatorState, error) {
	d, err := optionalValue(data)
	if err != nil {
		return types.StateUnknown, err
	}
	tag, err := d.Uint8()
	if err != nil {
		return types.StateUnknown, decodeFailure(err)
	}
	if err := d.Done(); err != nil {
		return types.StateUnknown, decodeFailure(err)
	}
	return types.ValidatorStateFromDiscriminant(tag), nil
}

// DecodeCommission decodes a commission pair. Rates outside [0, 1] are
// corrupt data and rejected, not clamped.
func DecodeCommission(data []byte) (types.CommissionPair, error) {
	var pair types.CommissionPair
	d, err := optionalValue(data)
	if err != nil {
		return pair, err
	}
	if pair.Rate, err = d.Dec(); err != nil {
		return pair, decodeFailure(fmt.Errorf("commission rate: %w", err))
	}
	if pair.MaxChangePerEpoch, err = d.Dec(); err != nil {
		return pair, decodeFailure(fmt.Errorf("max change per epoch: %w", err))
	}
	if err := d.Done(); err != nil {
		return pair, decodeFailure(err)
	}
	one := types.DecOne()
	if pair.Rate.Cmp(one) > 0 {
		return types.CommissionPair{}, &DecodeError{Kind: KindOutOfRange, Err: fmt.Errorf("commission rate %s outside [0, 1]", pair.Rate)}
	}
	if pair.MaxChangePerEpoch.Cmp(one) > 0 {
		return types.CommissionPair{}, &DecodeError{Kind: KindOutOfRange, Err: fmt.Errorf("max commission change %s outside [0, 1]", pair.MaxChangePerEpoch)}
	}
	return pair, nil
}

// DecodeStake decodes a validator's bonded stake (voting power).
func DecodeStake(data []byte) (uint64, error) {
	d, err := optionalValue(data)
	if err != nil {
		return 0, err
	}
	amount, err := d.Uint256()
	if err != nil {
		return 0, decodeFailure(err)
	}
	if err := d.Done(); err != nil {
		return 0, decodeFailure(err)
	}
	if !amount.IsUint64() {
		return 0, &DecodeError{Kind: KindOutOfRange, Err: fmt.Errorf("stake amount exceeds 64 bits")}
	}
	return amount.Uint64(), nil
}

/*
DecodeValidatorMetadata decodes a validator's self-reported metadata. The
email field is always present on chain; the remaining fields are
option-wrapped and decode to an empty string when unset.
*/
func DecodeValidatorMetadata(data []byte) (types.ValidatorMetadata, error) {
	var meta types.ValidatorMetadata
	d, err := optionalValue(data)
	if err != nil {
		return meta, err
	}
	if meta.Email, err = d.String(); err != nil {
		return meta, decodeFailure(fmt.Errorf("email: %w", err))
	}
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"description", &meta.Description},
		{"website", &meta.Website},
		{"discord handle", &meta.DiscordHandle},
		{"avatar", &meta.Avatar},
	} {
		present, err := d.Option()
		if err != nil {
			return types.ValidatorMetadata{}, decodeFailure(fmt.Errorf("%s: %w", field.name, err))
		}
		if !present {
			continue
		}
		if *field.dst, err = d.String(); err != nil {
			return types.ValidatorMetadata{}, decodeFailure(fmt.Errorf("%s: %w", field.name, err))
		}
	}
	if err := d.Done(); err != nil {
		return types.ValidatorMetadata{}, decodeFailure(err)
	}
	return meta, nil
}

/*
DecodeConsensusKey decodes a validator consensus public key into its
address form. The key is scheme tag plus key bytes: 32 for ed25519 (tag 0),
33 for compressed secp256k1 (tag 1).
*/
func DecodeConsensusKey(data []byte) (types.Address, error) {
	d, err := optionalValue(data)
	if err != nil {
		return types.Address{}, err
	}
	tag, err := d.Uint8()
	if err != nil {
		return types.Address{}, decodeFailure(err)
	}
	var keyLen int
	switch tag {
	case 0:
		keyLen = 32
	case 1:
		keyLen = 33
	default:
		return types.Address{}, &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("public key scheme 0x%02x", tag)}
	}
	key, err := d.Bytes(keyLen)
	if err != nil {
		return types.Address{}, decodeFailure(err)
	}
	if err := d.Done(); err != nil {
		return types.Address{}, decodeFailure(err)
	}
	addr, err := types.NewAddress(types.HRPPublicKey, append([]byte{tag}, key...))
	if err != nil {
		return types.Address{}, decodeFailure(err)
	}
	return addr, nil
}

// DecodeOperatorAddress decodes the operator address resolved from a
// consensus (Tendermint) address reverse lookup.
func DecodeOperatorAddress(data []byte) (types.Address, error) {
	d, err := optionalValue(data)
	if err != nil {
		return types.Address{}, err
	}
	addr, err := readAddress(d)
	if err != nil {
		return types.Address{}, err
	}
	if err := d.Done(); err != nil {
		return types.Address{}, decodeFailure(err)
	}
	return addr, nil
}

// DecodeEpoch decodes the current epoch counter. The value is not
// option-wrapped, the chain always has an epoch.
func DecodeEpoch(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, ErrNotFound
	}
	d := borsh.NewDecoder(data)
	epoch, err := d.Uint64()
	if err != nil {
		return 0, decodeFailure(err)
	}
	if err := d.Done(); err != nil {
		return 0, decodeFailure(err)
	}
	return epoch, nil
}

/*
DecodeProposal decodes a stored governance proposal. The Status field is
left at ProposalUnknown: it depends on the current epoch and the stored
tally, which the caller resolves separately.
*/
func DecodeProposal(data []byte) (*types.ProposalRecord, error) {
	d, err := optionalValue(data)
	if err != nil {
		return nil, err
	}
	p := &types.ProposalRecord{Status: types.ProposalUnknown}
	if p.ID, err = d.Uint64(); err != nil {
		return nil, decodeFailure(fmt.Errorf("proposal id: %w", err))
	}
	if p.Content, err = d.StringMap(); err != nil {
		return nil, decodeFailure(fmt.Errorf("content: %w", err))
	}
	if p.Author, err = readAddress(d); err != nil {
		return nil, fmt.Errorf("author: %w", err)
	}
	if p.Type, p.Data, err = readProposalType(d); err != nil {
		return nil, err
	}
	if p.VotingStartEpoch, err = d.Uint64(); err != nil {
		return nil, decodeFailure(fmt.Errorf("voting start epoch: %w", err))
	}
	if p.VotingEndEpoch, err = d.Uint64(); err != nil {
		return nil, decodeFailure(fmt.Errorf("voting end epoch: %w", err))
	}
	if p.ActivationEpoch, err = d.Uint64(); err != nil {
		return nil, decodeFailure(fmt.Errorf("activation epoch: %w", err))
	}
	if err := d.Done(); err != nil {
		return nil, decodeFailure(err)
	}
	return p, nil
}

// DecodeVotes decodes the cast votes of a proposal. An empty vote list is a
// valid response, only a missing key maps to ErrNotFound.
func DecodeVotes(data []byte) ([]types.Vote, error) {
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	d := borsh.NewDecoder(data)
	n, err := d.SeqLen()
	if err != nil {
		return nil, decodeFailure(err)
	}
	votes := make([]types.Vote, 0, n)
	for i := 0; i < n; i++ {
		var v types.Vote
		if v.Validator, err = readAddress(d); err != nil {
			return nil, fmt.Errorf("vote %d validator: %w", i, err)
		}
		if v.Delegator, err = readAddress(d); err != nil {
			return nil, fmt.Errorf("vote %d delegator: %w", i, err)
		}
		tag, err := d.Uint8()
		if err != nil {
			return nil, decodeFailure(err)
		}
		if tag > uint8(types.VoteAbstain) {
			return nil, &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("vote value 0x%02x", tag)}
		}
		v.Value = types.VoteValue(tag)
		votes = append(votes, v)
	}
	if err := d.Done(); err != nil {
		return nil, decodeFailure(err)
	}
	return votes, nil
}

// DecodeProposalResult decodes the stored tally of a finished proposal.
func DecodeProposalResult(data []byte) (*types.ProposalResultRecord, error) {
	d, err := optionalValue(data)
	if err != nil {
		return nil, err
	}
	r := &types.ProposalResultRecord{}
	tag, err := d.Uint8()
	if err != nil {
		return nil, decodeFailure(err)
	}
	if tag > uint8(types.TallyRejected) {
		return nil, &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("tally result 0x%02x", tag)}
	}
	r.Result = types.TallyResult(tag)
	if tag, err = d.Uint8(); err != nil {
		return nil, decodeFailure(err)
	}
	if tag > uint8(types.TallyLessOneHalfOverOneThirdNay) {
		return nil, &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("tally type 0x%02x", tag)}
	}
	r.TallyType = types.TallyType(tag)
	if r.TotalVotingPower, err = d.Uint256(); err != nil {
		return nil, decodeFailure(fmt.Errorf("total voting power: %w", err))
	}
	if r.TotalYay, err = d.Uint256(); err != nil {
		return nil, decodeFailure(fmt.Errorf("total yay power: %w", err))
	}
	if r.TotalNay, err = d.Uint256(); err != nil {
		return nil, decodeFailure(fmt.Errorf("total nay power: %w", err))
	}
	if r.TotalAbstain, err = d.Uint256(); err != nil {
		return nil, decodeFailure(fmt.Errorf("total abstain power: %w", err))
	}
	if err := d.Done(); err != nil {
		return nil, decodeFailure(err)
	}
	return r, nil
}

// readAddress reads an embedded account address (canonical text form,
// length-prefixed) and validates it through the address codec.
func readAddress(d *borsh.Decoder) (types.Address, error) {
	text, err := d.String()
	if err != nil {
		return types.Address{}, decodeFailure(err)
	}
	addr, err := types.DecodeAddress(text)
	if err != nil {
		return types.Address{}, &DecodeError{Kind: KindInvalidAddress, Err: err}
	}
	return addr, nil
}

/*
readProposalType reads the proposal type discriminant and its payload,
summarized into the human-readable Data string (the same rendering the
notifier shows subscribers).
*/
func readProposalType(d *borsh.Decoder) (types.ProposalType, string, error) {
	tag, err := d.Uint8()
	if err != nil {
		return 0, "", decodeFailure(err)
	}
	switch tag {
	case uint8(types.ProposalTypeDefault):
		present, err := d.Option()
		if err != nil {
			return 0, "", decodeFailure(err)
		}
		if !present {
			return types.ProposalTypeDefault, "", nil
		}
		hash, err := d.Bytes(32)
		if err != nil {
			return 0, "", decodeFailure(err)
		}
		return types.ProposalTypeDefault, fmt.Sprintf("Hash: %X", hash), nil

	case uint8(types.ProposalTypePGFSteward):
		n, err := d.SeqLen()
		if err != nil {
			return 0, "", decodeFailure(err)
		}
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			op, addr, err := readAddRemoveAddress(d)
			if err != nil {
				return 0, "", err
			}
			parts = append(parts, fmt.Sprintf("%s(%s)", op, addr))
		}
		return types.ProposalTypePGFSteward, strings.Join(parts, ", "), nil

	case uint8(types.ProposalTypePGFPayment):
		n, err := d.SeqLen()
		if err != nil {
			return 0, "", decodeFailure(err)
		}
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			part, err := readPGFAction(d)
			if err != nil {
				return 0, "", err
			}
			parts = append(parts, part)
		}
		return types.ProposalTypePGFPayment, strings.Join(parts, ", "), nil

	default:
		return 0, "", &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("proposal type 0x%02x", tag)}
	}
}

func readAddRemoveAddress(d *borsh.Decoder) (string, types.Address, error) {
	tag, err := d.Uint8()
	if err != nil {
		return "", types.Address{}, decodeFailure(err)
	}
	var op string
	switch tag {
	case 0:
		op = "Add"
	case 1:
		op = "Remove"
	default:
		return "", types.Address{}, &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("add/remove tag 0x%02x", tag)}
	}
	addr, err := readAddress(d)
	if err != nil {
		return "", types.Address{}, err
	}
	return op, addr, nil
}

// readPGFAction reads one public goods funding action: a continuous
// add/remove of a funding target or a one-off retroactive payment.
func readPGFAction(d *borsh.Decoder) (string, error) {
	tag, err := d.Uint8()
	if err != nil {
		return "", decodeFailure(err)
	}
	switch tag {
	case 0: // continuous
		op, err := d.Uint8()
		if err != nil {
			return "", decodeFailure(err)
		}
		if op > 1 {
			return "", &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("add/remove tag 0x%02x", op)}
		}
		target, err := readPGFTarget(d)
		if err != nil {
			return "", err
		}
		if op == 0 {
			return fmt.Sprintf("Add(%s)", target), nil
		}
		return fmt.Sprintf("Remove(%s)", target), nil
	case 1: // retroactive
		target, err := readPGFTarget(d)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Retro(%s)", target), nil
	default:
		return "", &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("pgf action 0x%02x", tag)}
	}
}

// readPGFTarget reads a funding target: an internal account or an IBC
// recipient, each with a 256 bit token amount.
func readPGFTarget(d *borsh.Decoder) (string, error) {
	tag, err := d.Uint8()
	if err != nil {
		return "", decodeFailure(err)
	}
	switch tag {
	case 0: // internal
		addr, err := readAddress(d)
		if err != nil {
			return "", err
		}
		if _, err := d.Uint256(); err != nil {
			return "", decodeFailure(err)
		}
		return addr.String(), nil
	case 1: // ibc
		recipient, err := d.String()
		if err != nil {
			return "", decodeFailure(err)
		}
		if _, err := d.Uint256(); err != nil {
			return "", decodeFailure(err)
		}
		return recipient, nil
	default:
		return "", &DecodeError{Kind: KindInvalidDiscriminant, Err: fmt.Errorf("pgf target 0x%02x", tag)}
	}
}
