package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackoreo/namwatch/borsh"
	"github.com/blackoreo/namwatch/types"
)

// a mainnet validator operator address
const testAddr = "tnam1qyvaqhs0vlfzlfhccxua89s8zmu7xq90xqsa9uua"

func testAddress(t *testing.T) types.Address {
	t.Helper()
	addr, err := types.DecodeAddress(testAddr)
	require.NoError(t, err)
	return addr
}

func TestBuildQuery(t *testing.T) {
	addr := testAddress(t)
	addrArg := borsh.NewEncoder().String(testAddr).Bytes()
	idArg := borsh.NewEncoder().Uint64(7).Bytes()

	cases := []struct {
		req  Request
		path string
		arg  []byte
	}{
		{ValidatorStateRequest{Address: addr}, "/vp/pos/validator/state", addrArg},
		{CommissionRequest{Address: addr}, "/vp/pos/validator/commission", addrArg},
		{StakeRequest{Address: addr}, "/vp/pos/validator/stake", addrArg},
		{ConsensusKeyRequest{Address: addr}, "/vp/pos/validator/consensus_key", addrArg},
		{MetadataRequest{Address: addr}, "/vp/pos/validator/metadata", addrArg},
		{ProposalRequest{ID: 7}, "/vp/governance/proposal", idArg},
		{ProposalVotesRequest{ID: 7}, "/vp/governance/proposal/votes", idArg},
		{ProposalResultRequest{ID: 7}, "/vp/governance/stored_proposal_result", idArg},
		{EpochRequest{}, "/shell/epoch", nil},
		{GovParamsRequest{}, "/vp/governance/parameters", nil},
	}
	for _, tc := range cases {
		path, arg := BuildQuery(tc.req)
		require.Equal(t, tc.path, path, "request %T", tc.req)
		require.Equal(t, tc.arg, arg, "request %T", tc.req)
	}
}

func TestBuildQuery_OperatorByTM(t *testing.T) {
	tm, err := types.ParseTMAddress("b54f747973a17b6d47264077090a347b65cdd472")
	require.NoError(t, err)

	path, arg := BuildQuery(OperatorByTMRequest{TMAddress: tm})
	require.Equal(t, "/vp/pos/validator_by_tm_addr", path)
	// the consensus address travels in its canonical upper-case hex form
	require.Equal(t, borsh.NewEncoder().String("B54F747973A17B6D47264077090A347B65CDD472").Bytes(), arg)
}

func TestBuildQuery_Deterministic(t *testing.T) {
	req := ValidatorStateRequest{Address: testAddress(t)}
	path1, arg1 := BuildQuery(req)
	path2, arg2 := BuildQuery(req)
	require.Equal(t, path1, path2)
	require.Equal(t, arg1, arg2)
}
