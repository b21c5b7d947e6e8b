package types

import (
	"encoding/json"
	"fmt"
)

// QueryKind is the variant tag of a query request or response. It is
// the sole discriminator used for both dispatch and response
// validation: a request of kind K must be answered by a response of
// kind K.
type QueryKind uint8

const (
	KindUnknown QueryKind = iota
	KindInfo
	KindBalance
	KindBalances
	KindSupply
	KindSupplies
	KindCode
	KindCodes
	KindAccount
	KindAccounts
	KindWasmRaw
	KindWasmSmart
	KindAppConfig
)

// AllKinds lists every known variant tag in declaration order.
var AllKinds = []QueryKind{
	KindInfo,
	KindBalance,
	KindBalances,
	KindSupply,
	KindSupplies,
	KindCode,
	KindCodes,
	KindAccount,
	KindAccounts,
	KindWasmRaw,
	KindWasmSmart,
	KindAppConfig,
}

// String returns the snake_case wire name of the variant.
func (k QueryKind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindBalance:
		return "balance"
	case KindBalances:
		return "balances"
	case KindSupply:
		return "supply"
	case KindSupplies:
		return "supplies"
	case KindCode:
		return "code"
	case KindCodes:
		return "codes"
	case KindAccount:
		return "account"
	case KindAccounts:
		return "accounts"
	case KindWasmRaw:
		return "wasm_raw"
	case KindWasmSmart:
		return "wasm_smart"
	case KindAppConfig:
		return "app_config"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// QueryRequest is the wire form of a query: a tagged union with exactly
// one variant populated.
//
// Build one with NewQueryRequest rather than by hand; Validate rejects
// requests with zero or several variants set.
type QueryRequest struct {
	Info      *QueryInfoRequest      `json:"info,omitempty"`
	Balance   *QueryBalanceRequest   `json:"balance,omitempty"`
	Balances  *QueryBalancesRequest  `json:"balances,omitempty"`
	Supply    *QuerySupplyRequest    `json:"supply,omitempty"`
	Supplies  *QuerySuppliesRequest  `json:"supplies,omitempty"`
	Code      *QueryCodeRequest      `json:"code,omitempty"`
	Codes     *QueryCodesRequest     `json:"codes,omitempty"`
	Account   *QueryAccountRequest   `json:"account,omitempty"`
	Accounts  *QueryAccountsRequest  `json:"accounts,omitempty"`
	WasmRaw   *QueryWasmRawRequest   `json:"wasm_raw,omitempty"`
	WasmSmart *QueryWasmSmartRequest `json:"wasm_smart,omitempty"`
	// AppConfig is the reserved path the app-config resolver uses to
	// fetch the contract registry.
	AppConfig *QueryAppConfigRequest `json:"app_config,omitempty"`
}

// RequestVariant is implemented by every request parameter record and
// nothing else.
type RequestVariant interface {
	Kind() QueryKind
	isRequestVariant()
}

type QueryInfoRequest struct{}

type QueryBalanceRequest struct {
	Address Addr  `json:"address"`
	Denom   Denom `json:"denom"`
}

type QueryBalancesRequest struct {
	Address    Addr    `json:"address"`
	StartAfter *Denom  `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type QuerySupplyRequest struct {
	Denom Denom `json:"denom"`
}

type QuerySuppliesRequest struct {
	StartAfter *Denom  `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type QueryCodeRequest struct {
	Hash Hash `json:"hash"`
}

type QueryCodesRequest struct {
	StartAfter *Hash   `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type QueryAccountRequest struct {
	Address Addr `json:"address"`
}

type QueryAccountsRequest struct {
	StartAfter *Addr   `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type QueryWasmRawRequest struct {
	Contract Addr   `json:"contract"`
	Key      Binary `json:"key"`
}

// QueryWasmSmartRequest calls a contract's query entry point. Msg is
// the contract-specific JSON message, opaque at this layer.
type QueryWasmSmartRequest struct {
	Contract Addr            `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

type QueryAppConfigRequest struct{}

func (QueryInfoRequest) Kind() QueryKind      { return KindInfo }
func (QueryBalanceRequest) Kind() QueryKind   { return KindBalance }
func (QueryBalancesRequest) Kind() QueryKind  { return KindBalances }
func (QuerySupplyRequest) Kind() QueryKind    { return KindSupply }
func (QuerySuppliesRequest) Kind() QueryKind  { return KindSupplies }
func (QueryCodeRequest) Kind() QueryKind      { return KindCode }
func (QueryCodesRequest) Kind() QueryKind     { return KindCodes }
func (QueryAccountRequest) Kind() QueryKind   { return KindAccount }
func (QueryAccountsRequest) Kind() QueryKind  { return KindAccounts }
func (QueryWasmRawRequest) Kind() QueryKind   { return KindWasmRaw }
func (QueryWasmSmartRequest) Kind() QueryKind { return KindWasmSmart }
func (QueryAppConfigRequest) Kind() QueryKind { return KindAppConfig }

func (QueryInfoRequest) isRequestVariant()      {}
func (QueryBalanceRequest) isRequestVariant()   {}
func (QueryBalancesRequest) isRequestVariant()  {}
func (QuerySupplyRequest) isRequestVariant()    {}
func (QuerySuppliesRequest) isRequestVariant()  {}
func (QueryCodeRequest) isRequestVariant()      {}
func (QueryCodesRequest) isRequestVariant()     {}
func (QueryAccountRequest) isRequestVariant()   {}
func (QueryAccountsRequest) isRequestVariant()  {}
func (QueryWasmRawRequest) isRequestVariant()   {}
func (QueryWasmSmartRequest) isRequestVariant() {}
func (QueryAppConfigRequest) isRequestVariant() {}

// NewQueryRequest wraps a single variant into its wire form.
func NewQueryRequest(v RequestVariant) QueryRequest {
	var req QueryRequest
	switch v := v.(type) {
	case QueryInfoRequest:
		req.Info = &v
	case QueryBalanceRequest:
		req.Balance = &v
	case QueryBalancesRequest:
		req.Balances = &v
	case QuerySupplyRequest:
		req.Supply = &v
	case QuerySuppliesRequest:
		req.Supplies = &v
	case QueryCodeRequest:
		req.Code = &v
	case QueryCodesRequest:
		req.Codes = &v
	case QueryAccountRequest:
		req.Account = &v
	case QueryAccountsRequest:
		req.Accounts = &v
	case QueryWasmRawRequest:
		req.WasmRaw = &v
	case QueryWasmSmartRequest:
		req.WasmSmart = &v
	case QueryAppConfigRequest:
		req.AppConfig = &v
	}
	return req
}

// Variant returns the populated variant. It fails if the request has
// zero or more than one variant set.
func (r QueryRequest) Variant() (RequestVariant, error) {
	var found []RequestVariant
	if r.Info != nil {
		found = append(found, *r.Info)
	}
	if r.Balance != nil {
		found = append(found, *r.Balance)
	}
	if r.Balances != nil {
		found = append(found, *r.Balances)
	}
	if r.Supply != nil {
		found = append(found, *r.Supply)
	}
	if r.Supplies != nil {
		found = append(found, *r.Supplies)
	}
	if r.Code != nil {
		found = append(found, *r.Code)
	}
	if r.Codes != nil {
		found = append(found, *r.Codes)
	}
	if r.Account != nil {
		found = append(found, *r.Account)
	}
	if r.Accounts != nil {
		found = append(found, *r.Accounts)
	}
	if r.WasmRaw != nil {
		found = append(found, *r.WasmRaw)
	}
	if r.WasmSmart != nil {
		found = append(found, *r.WasmSmart)
	}
	if r.AppConfig != nil {
		found = append(found, *r.AppConfig)
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, fmt.Errorf("query request has no variant set")
	default:
		kinds := make([]string, len(found))
		for i, v := range found {
			kinds[i] = v.Kind().String()
		}
		return nil, fmt.Errorf("query request has %d variants set: %v", len(found), kinds)
	}
}

// Kind returns the variant tag, or KindUnknown if the request is
// malformed.
func (r QueryRequest) Kind() QueryKind {
	v, err := r.Variant()
	if err != nil {
		return KindUnknown
	}
	return v.Kind()
}

// Validate checks that exactly one variant is populated.
func (r QueryRequest) Validate() error {
	_, err := r.Variant()
	return err
}
