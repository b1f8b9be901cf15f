package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

/*
ValidatorState enumerates the proof-of-stake states of a validator. The
values 0..4 mirror the chain's wire discriminants; StateUnknown is the
forward-compatible catch-all for discriminants this build does not know.
*/
type ValidatorState uint8

const (
	StateConsensus ValidatorState = iota
	StateBelowCapacity
	StateBelowThreshold
	StateInactive
	StateJailed
	StateUnknown
)

// ValidatorStateFromDiscriminant maps a wire discriminant to a state.
// Unrecognized discriminants map to StateUnknown rather than failing so
// that future chain upgrades do not break decoding.
func ValidatorStateFromDiscriminant(b byte) ValidatorState {
	if b <= byte(StateJailed) {
		return ValidatorState(b)
	}
	return StateUnknown
}

func (s ValidatorState) String() string {
	switch s {
	case StateConsensus:
		return "Consensus"
	case StateBelowCapacity:
		return "BelowCapacity"
	case StateBelowThreshold:
		return "BelowThreshold"
	case StateInactive:
		return "Inactive"
	case StateJailed:
		return "Jailed"
	default:
		return "Unknown"
	}
}

// CommissionPair is a validator's current commission rate and the maximum
// allowed rate change per epoch. Both are in [0, 1].
type CommissionPair struct {
	_                 struct{} `cbor:",toarray"`
	Rate              Dec
	MaxChangePerEpoch Dec
}

// tmAddressSize is the byte length of a CometBFT consensus address.
const tmAddressSize = 20

// TMAddress is the CometBFT (Tendermint) consensus address of a validator,
// the truncated hash of its consensus key.
type TMAddress [tmAddressSize]byte

// ParseTMAddress parses the 40 character hex form, case insensitive.
func ParseTMAddress(text string) (TMAddress, error) {
	var addr TMAddress
	raw, err := hex.DecodeString(strings.ToLower(text))
	if err != nil {
		return addr, fmt.Errorf("invalid consensus address %q: %w", text, err)
	}
	if len(raw) != tmAddressSize {
		return addr, fmt.Errorf("invalid consensus address length: expected %d bytes, got %d", tmAddressSize, len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// String returns the canonical upper-case hex form.
func (a TMAddress) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

/*
ValidatorRecord is the full observed state of one validator. A record is
created fresh from every successful query and never mutated; a newer record
supersedes the older one.
*/
type ValidatorRecord struct {
	_                   struct{} `cbor:",toarray"`
	Address             Address
	ConsensusKey        Address
	State               ValidatorState
	Commission          Dec
	MaxCommissionChange Dec
	VotingPower         uint64
}

func (r *ValidatorRecord) Equal(o *ValidatorRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Address.Equal(o.Address) &&
		r.ConsensusKey.Equal(o.ConsensusKey) &&
		r.State == o.State &&
		r.Commission == o.Commission &&
		r.MaxCommissionChange == o.MaxCommissionChange &&
		r.VotingPower == o.VotingPower
}

func (r *ValidatorRecord) String() string {
	if r == nil {
		return "validator record is nil"
	}
	return fmt.Sprintf("%s state: %s commission: %s power: %d", r.Address, r.State, r.Commission, r.VotingPower)
}

/*
ValidatorMetadata is the self-reported contact information of a validator.
Only the email is mandatory on chain; the optional fields decode to an
empty string when the validator left them unset.
*/
type ValidatorMetadata struct {
	Email         string
	Description   string
	Website       string
	DiscordHandle string
	Avatar        string
}
