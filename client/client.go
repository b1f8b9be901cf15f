/*
Package client queries a chain node's ABCI query interface and decodes the
responses into typed records. It owns the query path construction and the
binary response decoding; the transport itself is an injected capability.
*/
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackoreo/namwatch/types"
)

/*
Transport performs one raw ABCI query. Implementations must be safe for
concurrent use: the client dispatches independent queries for different
addresses in parallel. A height of 0 queries the latest committed state.

Transport failures should be reported as *TransportError so the caller can
tell retryable from permanent ones; anything else is treated as retryable.
*/
type Transport interface {
	RawQuery(ctx context.Context, path string, data []byte, height uint64) ([]byte, error)
}

// Client is a stateless ABCI query client. All methods are safe for
// concurrent use; the client holds no mutable state and caches nothing.
type Client struct {
	transport Transport
}

func New(transport Transport) *Client {
	return &Client{transport: transport}
}

func (c *Client) raw(ctx context.Context, req Request) ([]byte, error) {
	path, arg := BuildQuery(req)
	data, err := c.transport.RawQuery(ctx, path, arg, 0)
	if err != nil {
		return nil, asTransportError(err)
	}
	return data, nil
}

// asTransportError makes sure every transport failure carries a retryable
// flag. Unclassified errors default to retryable so that a transient fault
// in a custom transport does not permanently flag an address.
func asTransportError(err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Retryable: true, Err: err}
}

// ValidatorState fetches the proof-of-stake state of a validator.
func (c *Client) ValidatorState(ctx context.Context, addr types.Address) (types.ValidatorState, error) {
	data, err := c.raw(ctx, ValidatorStateRequest{Address: addr})
	if err != nil {
		return types.StateUnknown, err
	}
	return DecodeValidatorState(data)
}

// ValidatorCommission fetches the commission pair of a validator.
func (c *Client) ValidatorCommission(ctx context.Context, addr types.Address) (types.CommissionPair, error) {
	data, err := c.raw(ctx, CommissionRequest{Address: addr})
	if err != nil {
		return types.CommissionPair{}, err
	}
	return DecodeCommission(data)
}

// ValidatorStake fetches the bonded stake backing a validator.
func (c *Client) ValidatorStake(ctx context.Context, addr types.Address) (uint64, error) {
	data, err := c.raw(ctx, StakeRequest{Address: addr})
	if err != nil {
		return 0, err
	}
	return DecodeStake(data)
}

// ConsensusKey fetches the consensus public key of a validator in its
// address form.
func (c *Client) ConsensusKey(ctx context.Context, addr types.Address) (types.Address, error) {
	data, err := c.raw(ctx, ConsensusKeyRequest{Address: addr})
	if err != nil {
		return types.Address{}, err
	}
	return DecodeConsensusKey(data)
}

// ValidatorMetadata fetches the self-reported contact information of a
// validator. Validators that never published metadata map to ErrNotFound.
func (c *Client) ValidatorMetadata(ctx context.Context, addr types.Address) (types.ValidatorMetadata, error) {
	data, err := c.raw(ctx, MetadataRequest{Address: addr})
	if err != nil {
		return types.ValidatorMetadata{}, err
	}
	return DecodeValidatorMetadata(data)
}

// OperatorAddressByTM resolves a CometBFT consensus address to the
// validator's operator address.
func (c *Client) OperatorAddressByTM(ctx context.Context, tm types.TMAddress) (types.Address, error) {
	data, err := c.raw(ctx, OperatorByTMRequest{TMAddress: tm})
	if err != nil {
		return types.Address{}, err
	}
	return DecodeOperatorAddress(data)
}

// Epoch fetches the chain's current epoch counter.
func (c *Client) Epoch(ctx context.Context) (uint64, error) {
	data, err := c.raw(ctx, EpochRequest{})
	if err != nil {
		return 0, err
	}
	return DecodeEpoch(data)
}

// GovernanceParameters fetches the chain's governance parameters as the
// raw storage value. The layout varies between chain versions and nothing
// downstream interprets it, so it is handed to the caller undecoded.
func (c *Client) GovernanceParameters(ctx context.Context) ([]byte, error) {
	data, err := c.raw(ctx, GovParamsRequest{})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

/*
Validator assembles the full observed record of one validator. A validator
with no state entry does not exist: ErrNotFound. Missing stake or consensus
key entries are tolerated (zero power, zero address); a missing commission
entry decodes to a zero pair, which can happen briefly for a freshly
created validator.
*/
func (c *Client) Validator(ctx context.Context, addr types.Address) (*types.ValidatorRecord, error) {
	state, err := c.ValidatorState(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("validator state of %s: %w", addr, err)
	}

	rec := &types.ValidatorRecord{Address: addr, State: state}

	commission, err := c.ValidatorCommission(ctx, addr)
	if err != nil && !IsNotFound(err) {
		return nil, fmt.Errorf("commission of %s: %w", addr, err)
	}
	rec.Commission = commission.Rate
	rec.MaxCommissionChange = commission.MaxChangePerEpoch

	stake, err := c.ValidatorStake(ctx, addr)
	if err != nil && !IsNotFound(err) {
		return nil, fmt.Errorf("stake of %s: %w", addr, err)
	}
	rec.VotingPower = stake

	key, err := c.ConsensusKey(ctx, addr)
	if err != nil && !IsNotFound(err) {
		return nil, fmt.Errorf("consensus key of %s: %w", addr, err)
	}
	rec.ConsensusKey = key

	return rec, nil
}

/*
Proposal fetches a governance proposal and resolves its status: the voting
window against the current epoch while voting is open, the stored tally
once it has closed. A finished proposal whose tally is not stored yet keeps
ProposalUnknown.
*/
func (c *Client) Proposal(ctx context.Context, id uint64) (*types.ProposalRecord, error) {
	data, err := c.raw(ctx, ProposalRequest{ID: id})
	if err != nil {
		return nil, err
	}
	p, err := DecodeProposal(data)
	if err != nil {
		return nil, err
	}

	epoch, err := c.Epoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("current epoch: %w", err)
	}
	p.Status = p.StatusAt(epoch)
	if p.Status != types.ProposalUnknown {
		return p, nil
	}

	result, err := c.ProposalResult(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return p, nil
		}
		return nil, fmt.Errorf("proposal %d result: %w", id, err)
	}
	p.Status = result.Status()
	return p, nil
}

// ProposalVotes fetches the votes cast on a proposal.
func (c *Client) ProposalVotes(ctx context.Context, id uint64) ([]types.Vote, error) {
	data, err := c.raw(ctx, ProposalVotesRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return DecodeVotes(data)
}

// ProposalResult fetches the stored tally of a finished proposal.
func (c *Client) ProposalResult(ctx context.Context, id uint64) (*types.ProposalResultRecord, error) {
	data, err := c.raw(ctx, ProposalResultRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return DecodeProposalResult(data)
}
