package dangotest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// DefaultPageLimit is the page size used when a paginated query omits
// its limit.
const DefaultPageLimit = 30

// GenesisTime is the timestamp of height 1. Each later height is one
// second after its parent.
var GenesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Compile-time interface check.
var _ server.Backend = (*Chain)(nil)

// State is the chain state at one height. Commit hands callers a
// private copy to mutate; committed states are never modified again.
type State struct {
	Config    types.Config
	AppConfig map[string]json.RawMessage
	Balances  map[types.Addr]map[types.Denom]sdkmath.Int
	Codes     map[types.Hash]types.Binary
	Accounts  map[types.Addr]types.AccountResponse
	Contracts map[types.Addr]server.Contract
	Storage   map[types.Addr]map[string][]byte
}

func newState() *State {
	return &State{
		AppConfig: make(map[string]json.RawMessage),
		Balances:  make(map[types.Addr]map[types.Denom]sdkmath.Int),
		Codes:     make(map[types.Hash]types.Binary),
		Accounts:  make(map[types.Addr]types.AccountResponse),
		Contracts: make(map[types.Addr]server.Contract),
		Storage:   make(map[types.Addr]map[string][]byte),
	}
}

func (s *State) clone() *State {
	c := newState()
	c.Config = s.Config
	for k, v := range s.AppConfig {
		c.AppConfig[k] = append(json.RawMessage(nil), v...)
	}
	for addr, coins := range s.Balances {
		m := make(map[types.Denom]sdkmath.Int, len(coins))
		for d, amt := range coins {
			m[d] = amt
		}
		c.Balances[addr] = m
	}
	for h, code := range s.Codes {
		c.Codes[h] = code
	}
	for addr, acc := range s.Accounts {
		c.Accounts[addr] = acc
	}
	for addr, contract := range s.Contracts {
		if cl, ok := contract.(server.Cloner); ok {
			contract = cl.Clone()
		}
		c.Contracts[addr] = contract
	}
	for addr, kv := range s.Storage {
		m := make(map[string][]byte, len(kv))
		for k, v := range kv {
			m[k] = append([]byte(nil), v...)
		}
		c.Storage[addr] = m
	}
	return c
}

// SetAppConfig stores v, JSON-encoded, under key. It panics if v cannot
// be encoded.
func (s *State) SetAppConfig(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("dangotest: app config %q: %v", key, err))
	}
	s.AppConfig[key] = raw
}

// SetBalance sets the amount of denom held by addr.
func (s *State) SetBalance(addr types.Addr, denom types.Denom, amount sdkmath.Int) {
	coins, ok := s.Balances[addr]
	if !ok {
		coins = make(map[types.Denom]sdkmath.Int)
		s.Balances[addr] = coins
	}
	if amount.IsZero() {
		delete(coins, denom)
		return
	}
	coins[denom] = amount
}

// StoreCode uploads code and returns its hash.
func (s *State) StoreCode(code types.Binary) types.Hash {
	sum := sha256.Sum256(code)
	h := types.Hash(hex.EncodeToString(sum[:]))
	s.Codes[h] = code
	return h
}

// Deploy instantiates contract at addr with the given code hash.
func (s *State) Deploy(addr types.Addr, codeHash types.Hash, contract server.Contract) {
	s.Accounts[addr] = types.AccountResponse{Address: addr, CodeHash: codeHash}
	s.Contracts[addr] = contract
}

// SetRaw writes a raw storage entry of contract.
func (s *State) SetRaw(contract types.Addr, key, value []byte) {
	kv, ok := s.Storage[contract]
	if !ok {
		kv = make(map[string][]byte)
		s.Storage[contract] = kv
	}
	kv[string(key)] = append([]byte(nil), value...)
}

// Chain is an in-memory, versioned node backend. Every committed height
// stays queryable, so historical queries see exactly the state that was
// committed at that height. It is safe for concurrent use.
type Chain struct {
	mu      sync.RWMutex
	chainID string
	states  []*State
}

// NewChain creates a chain with an empty genesis state at height 1.
func NewChain(chainID string) *Chain {
	return &Chain{
		chainID: chainID,
		states:  []*State{newState()},
	}
}

// ChainID returns the chain identifier.
func (c *Chain) ChainID() string { return c.chainID }

// Height returns the latest committed height.
func (c *Chain) Height() types.Height {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.Height(len(c.states))
}

// Commit copies the latest state, applies fn to the copy and commits it
// as a new height, which it returns.
func (c *Chain) Commit(fn func(s *State)) types.Height {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.states[len(c.states)-1].clone()
	if fn != nil {
		fn(next)
	}
	c.states = append(c.states, next)
	return types.Height(len(c.states))
}

// At returns the state at height, 0 meaning latest. Unknown heights fail
// with dango.ErrNotFound. The returned state must not be modified.
func (c *Chain) At(height types.Height) (*State, types.Height, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	latest := types.Height(len(c.states))
	if height == types.LatestHeight {
		height = latest
	}
	if height > latest {
		return nil, 0, errorsmod.Wrapf(dango.ErrNotFound, "height %d not found (latest %d)", height, latest)
	}
	return c.states[height-1], height, nil
}

func blockHash(height types.Height) types.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	sum := sha256.Sum256(buf[:])
	return types.Hash(hex.EncodeToString(sum[:]))
}

func (c *Chain) Info(_ context.Context, height types.Height) (types.InfoResponse, error) {
	s, h, err := c.At(height)
	if err != nil {
		return types.InfoResponse{}, err
	}
	return types.InfoResponse{
		ChainID: c.chainID,
		Config:  s.Config,
		LastFinalizedBlock: types.BlockInfo{
			Height:    h,
			Timestamp: types.TimeToTimestamp(GenesisTime.Add(time.Duration(h-1) * time.Second)),
			Hash:      blockHash(h),
		},
	}, nil
}

func (c *Chain) Balance(_ context.Context, height types.Height, req types.QueryBalanceRequest) (types.Coin, error) {
	s, _, err := c.At(height)
	if err != nil {
		return types.Coin{}, err
	}
	amt, ok := s.Balances[req.Address][req.Denom]
	if !ok {
		amt = sdkmath.ZeroInt()
	}
	return types.NewCoin(req.Denom, amt), nil
}

func (c *Chain) Balances(_ context.Context, height types.Height, req types.QueryBalancesRequest) (types.Coins, error) {
	s, _, err := c.At(height)
	if err != nil {
		return nil, err
	}
	held := s.Balances[req.Address]
	denoms := make([]types.Denom, 0, len(held))
	for d := range held {
		denoms = append(denoms, d)
	}
	denoms = paginate(denoms, req.StartAfter, req.Limit)
	coins := make(types.Coins, 0, len(denoms))
	for _, d := range denoms {
		coins = append(coins, types.NewCoin(d, held[d]))
	}
	return coins, nil
}

func (s *State) supply(denom types.Denom) sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, coins := range s.Balances {
		if amt, ok := coins[denom]; ok {
			total = total.Add(amt)
		}
	}
	return total
}

func (c *Chain) Supply(_ context.Context, height types.Height, req types.QuerySupplyRequest) (types.Coin, error) {
	s, _, err := c.At(height)
	if err != nil {
		return types.Coin{}, err
	}
	return types.NewCoin(req.Denom, s.supply(req.Denom)), nil
}

func (c *Chain) Supplies(_ context.Context, height types.Height, req types.QuerySuppliesRequest) (types.Coins, error) {
	s, _, err := c.At(height)
	if err != nil {
		return nil, err
	}
	seen := make(map[types.Denom]struct{})
	var denoms []types.Denom
	for _, coins := range s.Balances {
		for d := range coins {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				denoms = append(denoms, d)
			}
		}
	}
	denoms = paginate(denoms, req.StartAfter, req.Limit)
	coins := make(types.Coins, 0, len(denoms))
	for _, d := range denoms {
		coins = append(coins, types.NewCoin(d, s.supply(d)))
	}
	return coins, nil
}

func (c *Chain) Code(_ context.Context, height types.Height, req types.QueryCodeRequest) (types.Binary, error) {
	s, _, err := c.At(height)
	if err != nil {
		return nil, err
	}
	code, ok := s.Codes[req.Hash]
	if !ok {
		return nil, errorsmod.Wrapf(dango.ErrNotFound, "code %s", req.Hash)
	}
	return code, nil
}

func (c *Chain) Codes(_ context.Context, height types.Height, req types.QueryCodesRequest) ([]types.Hash, error) {
	s, _, err := c.At(height)
	if err != nil {
		return nil, err
	}
	hashes := make([]types.Hash, 0, len(s.Codes))
	for h := range s.Codes {
		hashes = append(hashes, h)
	}
	return paginate(hashes, req.StartAfter, req.Limit), nil
}

func (c *Chain) Account(_ context.Context, height types.Height, req types.QueryAccountRequest) (types.AccountResponse, error) {
	s, _, err := c.At(height)
	if err != nil {
		return types.AccountResponse{}, err
	}
	acc, ok := s.Accounts[req.Address]
	if !ok {
		return types.AccountResponse{}, errorsmod.Wrapf(dango.ErrNotFound, "account %s", req.Address)
	}
	return acc, nil
}

func (c *Chain) Accounts(_ context.Context, height types.Height, req types.QueryAccountsRequest) ([]types.AccountResponse, error) {
	s, _, err := c.At(height)
	if err != nil {
		return nil, err
	}
	addrs := make([]types.Addr, 0, len(s.Accounts))
	for a := range s.Accounts {
		addrs = append(addrs, a)
	}
	addrs = paginate(addrs, req.StartAfter, req.Limit)
	out := make([]types.AccountResponse, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, s.Accounts[a])
	}
	return out, nil
}

func (c *Chain) WasmRaw(_ context.Context, height types.Height, req types.QueryWasmRawRequest) (types.WasmRawResponse, error) {
	s, _, err := c.At(height)
	if err != nil {
		return types.WasmRawResponse{}, err
	}
	if _, ok := s.Accounts[req.Contract]; !ok {
		return types.WasmRawResponse{}, errorsmod.Wrapf(dango.ErrNotFound, "contract %s", req.Contract)
	}
	resp := types.WasmRawResponse{Contract: req.Contract, Key: req.Key}
	if v, ok := s.Storage[req.Contract][string(req.Key)]; ok {
		value := types.Binary(bytes.Clone(v))
		resp.Value = &value
	}
	return resp, nil
}

func (c *Chain) WasmSmart(ctx context.Context, height types.Height, req types.QueryWasmSmartRequest) (types.WasmSmartResponse, error) {
	s, _, err := c.At(height)
	if err != nil {
		return types.WasmSmartResponse{}, err
	}
	contract, ok := s.Contracts[req.Contract]
	if !ok {
		return types.WasmSmartResponse{}, errorsmod.Wrapf(dango.ErrNotFound, "contract %s", req.Contract)
	}
	data, err := contract.QuerySmart(ctx, req.Msg)
	if err != nil {
		if dango.Classified(err) {
			return types.WasmSmartResponse{}, err
		}
		return types.WasmSmartResponse{}, errorsmod.Wrapf(dango.ErrQueryFailed, "contract %s: %s", req.Contract, err)
	}
	return types.WasmSmartResponse{Contract: req.Contract, Data: data}, nil
}

func (c *Chain) AppConfig(_ context.Context, height types.Height) (json.RawMessage, error) {
	s, _, err := c.At(height)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s.AppConfig)
}

// paginate sorts keys ascending and returns at most limit keys strictly
// after startAfter.
func paginate[K ~string](keys []K, startAfter *K, limit *uint32) []K {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if startAfter != nil {
		i := sort.Search(len(keys), func(i int) bool { return keys[i] > *startAfter })
		keys = keys[i:]
	}
	n := DefaultPageLimit
	if limit != nil {
		n = int(*limit)
	}
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
