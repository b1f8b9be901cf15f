package client

import (
	"fmt"

	"github.com/blackoreo/namwatch/borsh"
	"github.com/blackoreo/namwatch/types"
)

/*
ABCI query paths. Each path selects an on-chain storage key namespace; the
query argument carries the encoded key (address or proposal id) within it.
*/
const (
	pathEpoch               = "/shell/epoch"
	pathValidatorState      = "/vp/pos/validator/state"
	pathValidatorCommission = "/vp/pos/validator/commission"
	pathValidatorStake      = "/vp/pos/validator/stake"
	pathValidatorMetadata   = "/vp/pos/validator/metadata"
	pathConsensusKey        = "/vp/pos/validator/consensus_key"
	pathValidatorByTM       = "/vp/pos/validator_by_tm_addr"
	pathProposal            = "/vp/governance/proposal"
	pathProposalVotes       = "/vp/governance/proposal/votes"
	pathProposalResult      = "/vp/governance/stored_proposal_result"
	pathGovParameters       = "/vp/governance/parameters"
)

/*
Request is the closed union of logical queries the client knows how to
build and decode. The interface is sealed so BuildQuery's type switch is
exhaustive; a new request kind cannot be added without extending it.
*/
type Request interface {
	isRequest()
}

type ValidatorStateRequest struct{ Address types.Address }

type CommissionRequest struct{ Address types.Address }

type StakeRequest struct{ Address types.Address }

type ConsensusKeyRequest struct{ Address types.Address }

type MetadataRequest struct{ Address types.Address }

type OperatorByTMRequest struct{ TMAddress types.TMAddress }

type ProposalRequest struct{ ID uint64 }

type ProposalVotesRequest struct{ ID uint64 }

type ProposalResultRequest struct{ ID uint64 }

type EpochRequest struct{}

type GovParamsRequest struct{}

func (ValidatorStateRequest) isRequest() {}
func (CommissionRequest) isRequest()     {}
func (StakeRequest) isRequest()          {}
func (ConsensusKeyRequest) isRequest()   {}
func (MetadataRequest) isRequest()       {}
func (OperatorByTMRequest) isRequest()   {}
func (ProposalRequest) isRequest()       {}
func (ProposalVotesRequest) isRequest()  {}
func (ProposalResultRequest) isRequest() {}
func (EpochRequest) isRequest()          {}
func (GovParamsRequest) isRequest()      {}

/*
BuildQuery maps a logical request to the ABCI query path and the encoded
argument key. Pure and deterministic: the same request always yields the
same pair. Addresses travel in canonical text form as length-prefixed
strings, proposal ids as little-endian u64.
*/
func BuildQuery(req Request) (path string, arg []byte) {
	switch r := req.(type) {
	case ValidatorStateRequest:
		return pathValidatorState, addressArg(r.Address)
	case CommissionRequest:
		return pathValidatorCommission, addressArg(r.Address)
	case StakeRequest:
		return pathValidatorStake, addressArg(r.Address)
	case ConsensusKeyRequest:
		return pathConsensusKey, addressArg(r.Address)
	case MetadataRequest:
		return pathValidatorMetadata, addressArg(r.Address)
	case OperatorByTMRequest:
		return pathValidatorByTM, borsh.NewEncoder().String(r.TMAddress.String()).Bytes()
	case ProposalRequest:
		return pathProposal, borsh.NewEncoder().Uint64(r.ID).Bytes()
	case ProposalVotesRequest:
		return pathProposalVotes, borsh.NewEncoder().Uint64(r.ID).Bytes()
	case ProposalResultRequest:
		return pathProposalResult, borsh.NewEncoder().Uint64(r.ID).Bytes()
	case EpochRequest:
		return pathEpoch, nil
	case GovParamsRequest:
		return pathGovParameters, nil
	default:
		// Request is sealed, this is unreachable.
		panic(fmt.Sprintf("unsupported request type %T", req))
	}
}

func addressArg(addr types.Address) []byte {
	return borsh.NewEncoder().String(addr.String()).Bytes()
}
