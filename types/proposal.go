package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ProposalStatus is the lifecycle phase of a governance proposal, derived
// from its voting epochs and, once voting has ended, from the stored tally.
type ProposalStatus uint8

const (
	ProposalPending ProposalStatus = iota
	ProposalOnGoing
	ProposalPassed
	ProposalRejected
	ProposalUnknown
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPending:
		return "Pending"
	case ProposalOnGoing:
		return "OnGoing"
	case ProposalPassed:
		return "Passed"
	case ProposalRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

type ProposalType uint8

const (
	ProposalTypeDefault ProposalType = iota
	ProposalTypePGFSteward
	ProposalTypePGFPayment
)

func (t ProposalType) String() string {
	switch t {
	case ProposalTypeDefault:
		return "Default"
	case ProposalTypePGFSteward:
		return "PGFSteward"
	case ProposalTypePGFPayment:
		return "PGFPayment"
	default:
		return fmt.Sprintf("ProposalType(%d)", uint8(t))
	}
}

/*
ProposalRecord is the decoded on-chain state of one governance proposal.
Like ValidatorRecord it is created fresh per query and never mutated.
Data is the human-readable summary of the type-specific payload (wasm code
hash for default proposals, add/remove actions for PGF proposals).
*/
type ProposalRecord struct {
	_                struct{} `cbor:",toarray"`
	ID               uint64
	Content          map[string]string
	Author           Address
	Type             ProposalType
	Data             string
	VotingStartEpoch uint64
	VotingEndEpoch   uint64
	ActivationEpoch  uint64
	Status           ProposalStatus
}

/*
StatusAt derives the proposal status from the voting window at the given
epoch. Once the window has closed the status depends on the stored tally
result, which this record does not carry, so ProposalUnknown is returned
and the caller resolves it through the proposal result query.
*/
func (p *ProposalRecord) StatusAt(epoch uint64) ProposalStatus {
	switch {
	case epoch < p.VotingStartEpoch:
		return ProposalPending
	case epoch <= p.VotingEndEpoch:
		return ProposalOnGoing
	default:
		return ProposalUnknown
	}
}

type VoteValue uint8

const (
	VoteYay VoteValue = iota
	VoteNay
	VoteAbstain
)

func (v VoteValue) String() string {
	switch v {
	case VoteYay:
		return "Yay"
	case VoteNay:
		return "Nay"
	case VoteAbstain:
		return "Abstain"
	default:
		return fmt.Sprintf("VoteValue(%d)", uint8(v))
	}
}

// Vote is one cast vote on a proposal. Delegator votes carry both the
// delegator and the validator the stake is bonded to.
type Vote struct {
	_         struct{} `cbor:",toarray"`
	Validator Address
	Delegator Address
	Value     VoteValue
}

type TallyResult uint8

const (
	TallyPassed TallyResult = iota
	TallyRejected
)

func (r TallyResult) String() string {
	switch r {
	case TallyPassed:
		return "Passed"
	case TallyRejected:
		return "Rejected"
	default:
		return fmt.Sprintf("TallyResult(%d)", uint8(r))
	}
}

type TallyType uint8

const (
	TallyTwoThirds TallyType = iota
	TallyOneHalfOverOneThird
	TallyLessOneHalfOverOneThirdNay
)

func (t TallyType) String() string {
	switch t {
	case TallyTwoThirds:
		return "TwoThirds"
	case TallyOneHalfOverOneThird:
		return "OneHalfOverOneThird"
	case TallyLessOneHalfOverOneThirdNay:
		return "LessOneHalfOverOneThirdNay"
	default:
		return fmt.Sprintf("TallyType(%d)", uint8(t))
	}
}

// ProposalResultRecord is the stored tally of a finished proposal. The
// power totals are native token amounts, 256 bit on the wire.
type ProposalResultRecord struct {
	Result           TallyResult
	TallyType        TallyType
	TotalVotingPower *uint256.Int
	TotalYay         *uint256.Int
	TotalNay         *uint256.Int
	TotalAbstain     *uint256.Int
}

// Status maps the tally result to the corresponding proposal status.
func (r *ProposalResultRecord) Status() ProposalStatus {
	switch r.Result {
	case TallyPassed:
		return ProposalPassed
	case TallyRejected:
		return ProposalRejected
	default:
		return ProposalUnknown
	}
}
