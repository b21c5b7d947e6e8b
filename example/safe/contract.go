// Package safe implements a mock multisig safe contract. Members vote
// yes or no on proposals; the votes query lists every vote cast on one
// proposal.
package safe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// Compile-time interface checks.
var (
	_ server.Contract = (*Contract)(nil)
	_ server.Cloner   = (*Contract)(nil)
)

// Status is the state of a proposal.
type Status string

const (
	StatusVoting   Status = "voting"
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusExecuted Status = "executed"
)

// Proposal is a safe proposal.
type Proposal struct {
	Title  string `json:"title"`
	Status Status `json:"status"`
	Yes    uint32 `json:"yes"`
	No     uint32 `json:"no"`
}

// QueryMsg is the contract's query interface.
type QueryMsg struct {
	Proposal *ProposalQuery `json:"proposal,omitempty"`
	Votes    *ProposalQuery `json:"votes,omitempty"`
	Members  *struct{}      `json:"members,omitempty"`
}

type ProposalQuery struct {
	ProposalID types.ProposalID `json:"proposal_id"`
}

// Contract is the safe state.
type Contract struct {
	mu        sync.RWMutex
	threshold uint32
	members   map[types.Username]uint32
	nextID    types.ProposalID
	proposals map[types.ProposalID]Proposal
	votes     map[types.ProposalID]map[types.Username]types.Vote
}

// New creates a safe with the given member powers. A proposal passes
// once its yes power reaches threshold.
func New(members map[types.Username]uint32, threshold uint32) *Contract {
	m := make(map[types.Username]uint32, len(members))
	for u, p := range members {
		m[u] = p
	}
	return &Contract{
		threshold: threshold,
		members:   m,
		nextID:    1,
		proposals: make(map[types.ProposalID]Proposal),
		votes:     make(map[types.ProposalID]map[types.Username]types.Vote),
	}
}

// Propose opens a proposal and returns its ID.
func (c *Contract) Propose(title string) types.ProposalID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.proposals[id] = Proposal{Title: title, Status: StatusVoting}
	c.votes[id] = make(map[types.Username]types.Vote)
	return id
}

// Vote records member's vote on proposal id.
func (c *Contract) Vote(id types.ProposalID, member types.Username, vote types.Vote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	power, ok := c.members[member]
	if !ok {
		return fmt.Errorf("%s is not a member", member)
	}
	p, ok := c.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %s not found", id)
	}
	if p.Status != StatusVoting {
		return fmt.Errorf("proposal %s is %s", id, p.Status)
	}
	if _, voted := c.votes[id][member]; voted {
		return fmt.Errorf("%s already voted on proposal %s", member, id)
	}

	switch vote {
	case types.VoteYes:
		p.Yes += power
	case types.VoteNo:
		p.No += power
	default:
		return fmt.Errorf("invalid vote %q", vote)
	}
	c.votes[id][member] = vote

	var total uint32
	for _, pw := range c.members {
		total += pw
	}
	switch {
	case p.Yes >= c.threshold:
		p.Status = StatusPassed
	case total-p.No < c.threshold:
		p.Status = StatusFailed
	}
	c.proposals[id] = p
	return nil
}

// Clone implements server.Cloner.
func (c *Contract) Clone() server.Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := New(c.members, c.threshold)
	out.nextID = c.nextID
	for id, p := range c.proposals {
		out.proposals[id] = p
	}
	for id, votes := range c.votes {
		m := make(map[types.Username]types.Vote, len(votes))
		for u, v := range votes {
			m[u] = v
		}
		out.votes[id] = m
	}
	return out
}

// QuerySmart implements server.Contract.
func (c *Contract) QuerySmart(_ context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var msg QueryMsg
	if err := server.DecodeMsg(raw, &msg); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case msg.Proposal != nil:
		p, ok := c.proposals[msg.Proposal.ProposalID]
		if !ok {
			return nil, errorsmod.Wrapf(dango.ErrNotFound, "proposal %s", msg.Proposal.ProposalID)
		}
		return server.EncodeAnswer(p)

	case msg.Votes != nil:
		votes, ok := c.votes[msg.Votes.ProposalID]
		if !ok {
			return nil, errorsmod.Wrapf(dango.ErrNotFound, "proposal %s", msg.Votes.ProposalID)
		}
		return server.EncodeAnswer(votes)

	default:
		return server.EncodeAnswer(c.members)
	}
}
