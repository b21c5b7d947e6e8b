package tokenfactory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/blockberries/dango"
	dangotest "github.com/blockberries/dango/testing"
	"github.com/blockberries/dango/types"
)

func query(t *testing.T, c *Contract, msg string, out any) error {
	t.Helper()
	raw, err := c.QuerySmart(context.Background(), json.RawMessage(msg))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return nil
}

func TestTokenFactory_Admin(t *testing.T) {
	c := New(Config{})
	c.SetAdmin("uatom", "dango1alice")

	var admin types.Addr
	if err := query(t, c, `{"admin":{"denom":"uatom"}}`, &admin); err != nil {
		t.Fatal(err)
	}
	if admin != "dango1alice" {
		t.Errorf("expected dango1alice, got %s", admin)
	}

	err := query(t, c, `{"admin":{"denom":"uosmo"}}`, &admin)
	if !errors.Is(err, dango.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenFactory_AdminsPagination(t *testing.T) {
	c := New(Config{})
	for _, d := range []types.Denom{"c", "a", "d", "b"} {
		c.SetAdmin(d, types.Addr("admin-"+string(d)))
	}

	var page map[types.Denom]types.Addr
	if err := query(t, c, `{"admins":{"limit":2}}`, &page); err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page["a"] == "" || page["b"] == "" {
		t.Errorf("expected first two denoms, got %v", page)
	}

	if err := query(t, c, `{"admins":{"start_after":"b"}}`, &page); err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page["c"] == "" || page["d"] == "" {
		t.Errorf("expected denoms after b, got %v", page)
	}
}

func TestTokenFactory_DefaultLimit(t *testing.T) {
	c := New(Config{})
	for i := range DefaultLimit + 5 {
		c.SetAdmin(types.Denom(string(rune('A'+i))), "dango1admin")
	}

	var page map[types.Denom]types.Addr
	if err := query(t, c, `{"admins":{}}`, &page); err != nil {
		t.Fatal(err)
	}
	if len(page) != DefaultLimit {
		t.Errorf("expected %d admins, got %d", DefaultLimit, len(page))
	}
}

func TestTokenFactory_Config(t *testing.T) {
	fee := types.Coin{Denom: "uusdc", Amount: "25"}
	c := New(Config{DenomCreationFee: &fee})

	var cfg Config
	if err := query(t, c, `{"config":{}}`, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.DenomCreationFee == nil || *cfg.DenomCreationFee != fee {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestTokenFactory_RejectsMalformed(t *testing.T) {
	c := New(Config{})
	for _, msg := range []string{`{}`, `{"mint":{}}`, `{"config":{},"admins":{}}`, `[]`} {
		_, err := c.QuerySmart(context.Background(), json.RawMessage(msg))
		if !errors.Is(err, dango.ErrQueryFailed) {
			t.Errorf("%s: expected ErrQueryFailed, got %v", msg, err)
		}
	}
}

func TestTokenFactory_CloneIsolated(t *testing.T) {
	h := dangotest.NewHarness(t, "tf-1")
	addr := dangotest.Addr("tf")
	before := h.Commit(func(s *dangotest.State) {
		c := New(Config{})
		c.SetAdmin("uatom", "dango1alice")
		s.Deploy(addr, s.StoreCode(types.Binary("tf")), c)
	})
	h.Commit(func(s *dangotest.State) {
		s.Contracts[addr].(*Contract).SetAdmin("uatom", "dango1bob")
	})

	msg := json.RawMessage(`{"admin":{"denom":"uatom"}}`)
	old := h.Query(types.QueryWasmSmartRequest{Contract: addr, Msg: msg}, before)
	if string(old.WasmSmart.Data) != `"dango1alice"` {
		t.Errorf("historical admin changed: %s", old.WasmSmart.Data)
	}
	cur := h.Query(types.QueryWasmSmartRequest{Contract: addr, Msg: msg}, 0)
	if string(cur.WasmSmart.Data) != `"dango1bob"` {
		t.Errorf("expected new admin, got %s", cur.WasmSmart.Data)
	}
}
