package actions

import (
	"context"
	"fmt"

	"github.com/blockberries/dango/query"
	"github.com/blockberries/dango/types"
)

// VotesRequest lists the votes cast on a safe proposal.
type VotesRequest struct {
	query.Returns[map[types.Username]types.Vote]
	ProposalID types.ProposalID `json:"proposal_id"`
}

func (r VotesRequest) SmartMsg() any {
	return map[string]any{"votes": r}
}

// ProposalRequest fetches a safe proposal.
type ProposalRequest struct {
	query.Returns[SafeProposal]
	ProposalID types.ProposalID `json:"proposal_id"`
}

func (r ProposalRequest) SmartMsg() any {
	return map[string]any{"proposal": r}
}

// SafeProposal is a proposal as the safe reports it.
type SafeProposal struct {
	Title  string `json:"title"`
	Status string `json:"status"`
	Yes    uint32 `json:"yes"`
	No     uint32 `json:"no"`
}

type GetVotesForProposalParams struct {
	// Address is the safe itself; safes are not in the registry.
	Address    types.Addr
	ProposalID types.ProposalID
	Height     types.Height
}

// GetVotesForProposal returns every vote cast on a proposal, keyed by
// member username.
func (a *Actions) GetVotesForProposal(ctx context.Context, p GetVotesForProposalParams) (map[types.Username]types.Vote, error) {
	if p.Address == "" {
		return nil, fmt.Errorf("get votes for proposal: safe address is required")
	}
	return query.SmartTyped[map[types.Username]types.Vote](ctx, a.q, p.Address, VotesRequest{ProposalID: p.ProposalID}, p.Height)
}

type GetProposalParams struct {
	Address    types.Addr
	ProposalID types.ProposalID
	Height     types.Height
}

// GetProposal fetches one proposal of the safe at Address.
func (a *Actions) GetProposal(ctx context.Context, p GetProposalParams) (SafeProposal, error) {
	if p.Address == "" {
		return SafeProposal{}, fmt.Errorf("get proposal: safe address is required")
	}
	return query.SmartTyped[SafeProposal](ctx, a.q, p.Address, ProposalRequest{ProposalID: p.ProposalID}, p.Height)
}
