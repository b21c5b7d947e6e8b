// Package types defines the query protocol spoken between a dango
// client and a Grug node: the request and response tagged unions, and
// the plain value types they carry.
//
// These are plain Go structs with snake_case json tags matching the
// node's JSON ABI. Transport concerns (gRPC codec registration,
// envelopes) are handled in the transport packages.
package types

import "strconv"

// Addr is a bech32 or hex encoded account or contract address.
type Addr string

func (a Addr) String() string { return string(a) }

// Denom is a token denomination (e.g., "uusdc").
type Denom string

// Username is a registered account-factory username.
type Username string

// Hash is a hex-encoded 32-byte hash (e.g., a code hash).
type Hash string

// Binary is opaque bytes, base64-encoded in JSON.
type Binary []byte

// Height identifies a historical point of the chain.
//
// The zero value is a sentinel meaning "latest committed state", not
// literal block zero. Every query path honours it identically.
type Height = uint64

// LatestHeight queries the most recent committed state.
const LatestHeight Height = 0

// AccountType is the kind of account the account factory creates.
type AccountType string

const (
	AccountTypeSpot   AccountType = "spot"
	AccountTypeMargin AccountType = "margin"
	AccountTypeSafe   AccountType = "safe"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSpot, AccountTypeMargin, AccountTypeSafe:
		return true
	}
	return false
}

// ProposalID identifies a safe proposal.
type ProposalID uint32

func (id ProposalID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Vote is a safe member's vote on a proposal.
type Vote string

const (
	VoteYes Vote = "yes"
	VoteNo  Vote = "no"
)
