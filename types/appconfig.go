package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Well-known app-config keys.
const (
	AppConfigKeyAddresses      = "addresses"
	AppConfigKeyAccountFactory = "account_factory"
	AppConfigKeyTokenFactory   = "token_factory"
	AppConfigKeyBank           = "bank"
)

// AppConfig is the chain's registry of well-known contracts and
// settings: a mapping from logical key to a JSON value (most often an
// address). It is immutable for a given height.
type AppConfig map[string]json.RawMessage

// ParseAppConfig decodes the raw registry returned by the node.
func ParseAppConfig(raw json.RawMessage) (AppConfig, error) {
	cfg := AppConfig{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("app config is not a JSON object: %w", err)
	}
	return cfg, nil
}

// Lookup returns the raw value stored under key.
func (c AppConfig) Lookup(key string) (json.RawMessage, bool) {
	v, ok := c[key]
	return v, ok
}

// Keys returns the registry keys in sorted order.
func (c AppConfig) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode decodes the whole registry into v.
func (c AppConfig) Decode(v any) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// DangoAppConfig is the typed view of the Dango registry used by
// account-factory actions.
type DangoAppConfig struct {
	Addresses        AppAddresses    `json:"addresses"`
	TokenFactory     Addr            `json:"token_factory,omitempty"`
	CollateralPowers json.RawMessage `json:"collateral_powers,omitempty"`
}

// AppAddresses lists the core Dango contracts.
type AppAddresses struct {
	AccountFactory Addr `json:"account_factory"`
	TokenFactory   Addr `json:"token_factory,omitempty"`
	Bank           Addr `json:"bank,omitempty"`
	Oracle         Addr `json:"oracle,omitempty"`
	Taxman         Addr `json:"taxman,omitempty"`
	Lending        Addr `json:"lending,omitempty"`
	Amm            Addr `json:"amm,omitempty"`
	IbcTransfer    Addr `json:"ibc_transfer,omitempty"`
}
