package types

import (
	"encoding/json"
	"fmt"
)

// QueryResponse mirrors QueryRequest one-to-one: exactly one variant is
// populated, and it must carry the same tag as the request it answers.
type QueryResponse struct {
	Info      *InfoResponse      `json:"info,omitempty"`
	Balance   *Coin              `json:"balance,omitempty"`
	Balances  *Coins             `json:"balances,omitempty"`
	Supply    *Coin              `json:"supply,omitempty"`
	Supplies  *Coins             `json:"supplies,omitempty"`
	Code      *Binary            `json:"code,omitempty"`
	Codes     *[]Hash            `json:"codes,omitempty"`
	Account   *AccountResponse   `json:"account,omitempty"`
	Accounts  *[]AccountResponse `json:"accounts,omitempty"`
	WasmRaw   *WasmRawResponse   `json:"wasm_raw,omitempty"`
	WasmSmart *WasmSmartResponse `json:"wasm_smart,omitempty"`
	AppConfig *json.RawMessage   `json:"app_config,omitempty"`
}

// InfoResponse describes the chain as of the queried height.
type InfoResponse struct {
	ChainID            string    `json:"chain_id"`
	Config             Config    `json:"config"`
	LastFinalizedBlock BlockInfo `json:"last_finalized_block"`
}

// Config is the chain-level configuration.
type Config struct {
	Owner        *Addr    `json:"owner,omitempty"`
	Bank         Addr     `json:"bank"`
	Taxman       Addr     `json:"taxman,omitempty"`
	MaxOrphanAge Duration `json:"max_orphan_age"`
}

// BlockInfo identifies a finalized block.
type BlockInfo struct {
	Height    uint64    `json:"height"`
	Timestamp Timestamp `json:"timestamp"`
	Hash      Hash      `json:"hash"`
}

// AccountResponse describes an account or contract.
type AccountResponse struct {
	Address  Addr  `json:"address"`
	CodeHash Hash  `json:"code_hash"`
	Admin    *Addr `json:"admin,omitempty"`
}

type WasmRawResponse struct {
	Contract Addr    `json:"contract"`
	Key      Binary  `json:"key"`
	Value    *Binary `json:"value,omitempty"`
}

// WasmSmartResponse carries the contract's JSON answer, opaque at this
// layer.
type WasmSmartResponse struct {
	Contract Addr            `json:"contract"`
	Data     json.RawMessage `json:"data"`
}

// Kind returns the tag of the single populated variant. It fails if
// zero or several variants are set.
func (r QueryResponse) Kind() (QueryKind, error) {
	var kinds []QueryKind
	if r.Info != nil {
		kinds = append(kinds, KindInfo)
	}
	if r.Balance != nil {
		kinds = append(kinds, KindBalance)
	}
	if r.Balances != nil {
		kinds = append(kinds, KindBalances)
	}
	if r.Supply != nil {
		kinds = append(kinds, KindSupply)
	}
	if r.Supplies != nil {
		kinds = append(kinds, KindSupplies)
	}
	if r.Code != nil {
		kinds = append(kinds, KindCode)
	}
	if r.Codes != nil {
		kinds = append(kinds, KindCodes)
	}
	if r.Account != nil {
		kinds = append(kinds, KindAccount)
	}
	if r.Accounts != nil {
		kinds = append(kinds, KindAccounts)
	}
	if r.WasmRaw != nil {
		kinds = append(kinds, KindWasmRaw)
	}
	if r.WasmSmart != nil {
		kinds = append(kinds, KindWasmSmart)
	}
	if r.AppConfig != nil {
		kinds = append(kinds, KindAppConfig)
	}

	switch len(kinds) {
	case 1:
		return kinds[0], nil
	case 0:
		return KindUnknown, fmt.Errorf("query response has no variant set")
	default:
		return KindUnknown, fmt.Errorf("query response has %d variants set: %v", len(kinds), kinds)
	}
}

// --- Constructors used by node-side handlers ---

func InfoResult(v InfoResponse) QueryResponse { return QueryResponse{Info: &v} }

func BalanceResult(v Coin) QueryResponse { return QueryResponse{Balance: &v} }

func BalancesResult(v Coins) QueryResponse {
	if v == nil {
		v = Coins{}
	}
	return QueryResponse{Balances: &v}
}

func SupplyResult(v Coin) QueryResponse { return QueryResponse{Supply: &v} }

func SuppliesResult(v Coins) QueryResponse {
	if v == nil {
		v = Coins{}
	}
	return QueryResponse{Supplies: &v}
}

func CodeResult(v Binary) QueryResponse { return QueryResponse{Code: &v} }

func CodesResult(v []Hash) QueryResponse {
	if v == nil {
		v = []Hash{}
	}
	return QueryResponse{Codes: &v}
}

func AccountResult(v AccountResponse) QueryResponse { return QueryResponse{Account: &v} }

func AccountsResult(v []AccountResponse) QueryResponse {
	if v == nil {
		v = []AccountResponse{}
	}
	return QueryResponse{Accounts: &v}
}

func WasmRawResult(v WasmRawResponse) QueryResponse { return QueryResponse{WasmRaw: &v} }

func WasmSmartResult(v WasmSmartResponse) QueryResponse { return QueryResponse{WasmSmart: &v} }

func AppConfigResult(v json.RawMessage) QueryResponse { return QueryResponse{AppConfig: &v} }
