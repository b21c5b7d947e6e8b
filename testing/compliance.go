package dangotest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/server"
	"github.com/blockberries/dango/types"
)

// EchoContract answers every smart query with the message it was sent.
// Messages of the form {"fail": ...} fail with a contract error and
// {"missing": ...} with dango.ErrNotFound.
type EchoContract struct{}

func (EchoContract) QuerySmart(_ context.Context, msg json.RawMessage) (json.RawMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(msg, &probe); err == nil {
		if _, ok := probe["fail"]; ok {
			return nil, errors.New("echo: asked to fail")
		}
		if _, ok := probe["missing"]; ok {
			return nil, errorsmod.Wrap(dango.ErrNotFound, "echo: asked for a missing entity")
		}
	}
	return msg, nil
}

// Fixture is the chain the compliance suite runs against.
type Fixture struct {
	Chain    *Chain
	Alice    types.Addr
	Bob      types.Addr
	Echo     types.Addr
	CodeHash types.Hash
	// Before and After are the heights before and after Alice's balance
	// change.
	Before types.Height
	After  types.Height
}

// NewFixture builds the compliance chain: genesis, one height with
// balances, code and an echo contract, and one height changing Alice's
// balance.
func NewFixture(chainID string) *Fixture {
	f := &Fixture{
		Chain: NewChain(chainID),
		Alice: Addr("alice"),
		Bob:   Addr("bob"),
		Echo:  Addr("echo"),
	}
	f.Before = f.Chain.Commit(func(s *State) {
		s.SetBalance(f.Alice, "uusdc", sdkmath.NewInt(100))
		s.SetBalance(f.Alice, "udng", sdkmath.NewInt(7))
		s.SetBalance(f.Bob, "uusdc", sdkmath.NewInt(50))
		f.CodeHash = s.StoreCode(types.Binary("echo-wasm"))
		s.Deploy(f.Echo, f.CodeHash, EchoContract{})
		s.SetRaw(f.Echo, []byte("k"), []byte("v"))
		s.SetAppConfig("bank", f.Bob)
	})
	f.After = f.Chain.Commit(func(s *State) {
		s.SetBalance(f.Alice, "uusdc", sdkmath.NewInt(150))
	})
	return f
}

// TransportFactory returns a transport serving router. Cleanup belongs
// on t.
type TransportFactory func(t *testing.T, router *server.Router) dango.Transport

// RunTransportSuite runs the standard compliance suite against a
// transport implementation. The factory is called once per subtest with
// a router over a fresh fixture chain.
func RunTransportSuite(t *testing.T, factory TransportFactory) {
	t.Helper()

	setup := func(t *testing.T) (*Fixture, *dango.Client[dango.Transport, dango.NoChain, dango.NoSigner]) {
		t.Helper()
		f := NewFixture("compliance-1")
		transport := factory(t, server.NewBackendRouter(f.Chain))
		return f, dango.NewPublicClient(transport)
	}

	query := func(t *testing.T, q dango.Querier, v types.RequestVariant, height types.Height) types.QueryResponse {
		t.Helper()
		resp, err := q.Query(context.Background(), types.NewQueryRequest(v), height)
		require.NoError(t, err, "%s at height %d", v.Kind(), height)
		return resp
	}

	t.Run("info_latest", func(t *testing.T) {
		f, c := setup(t)
		resp := query(t, c, types.QueryInfoRequest{}, 0)
		require.Equal(t, "compliance-1", resp.Info.ChainID)
		require.Equal(t, f.After, resp.Info.LastFinalizedBlock.Height)
	})

	t.Run("info_historical", func(t *testing.T) {
		f, c := setup(t)
		resp := query(t, c, types.QueryInfoRequest{}, f.Before)
		require.Equal(t, f.Before, resp.Info.LastFinalizedBlock.Height)
	})

	t.Run("balance_height_semantics", func(t *testing.T) {
		f, c := setup(t)
		req := types.QueryBalanceRequest{Address: f.Alice, Denom: "uusdc"}
		require.Equal(t, "100", query(t, c, req, f.Before).Balance.Amount)
		require.Equal(t, "150", query(t, c, req, f.After).Balance.Amount)
		require.Equal(t, "150", query(t, c, req, 0).Balance.Amount)
		require.Equal(t, "0", query(t, c, types.QueryBalanceRequest{Address: f.Bob, Denom: "udng"}, 0).Balance.Amount)
	})

	t.Run("balances_pagination", func(t *testing.T) {
		f, c := setup(t)
		one := uint32(1)
		resp := query(t, c, types.QueryBalancesRequest{Address: f.Alice, Limit: &one}, 0)
		require.Equal(t, types.Coins{{Denom: "udng", Amount: "7"}}, *resp.Balances)

		after := types.Denom("udng")
		resp = query(t, c, types.QueryBalancesRequest{Address: f.Alice, StartAfter: &after}, 0)
		require.Equal(t, types.Coins{{Denom: "uusdc", Amount: "150"}}, *resp.Balances)

		resp = query(t, c, types.QueryBalancesRequest{Address: Addr("nobody")}, 0)
		require.Empty(t, *resp.Balances)
	})

	t.Run("supply", func(t *testing.T) {
		f, c := setup(t)
		require.Equal(t, "150", query(t, c, types.QuerySupplyRequest{Denom: "uusdc"}, f.Before).Supply.Amount)
		require.Equal(t, "200", query(t, c, types.QuerySupplyRequest{Denom: "uusdc"}, 0).Supply.Amount)

		resp := query(t, c, types.QuerySuppliesRequest{}, 0)
		require.Equal(t, types.Coins{
			{Denom: "udng", Amount: "7"},
			{Denom: "uusdc", Amount: "200"},
		}, *resp.Supplies)
	})

	t.Run("code", func(t *testing.T) {
		f, c := setup(t)
		resp := query(t, c, types.QueryCodeRequest{Hash: f.CodeHash}, 0)
		require.Equal(t, types.Binary("echo-wasm"), *resp.Code)

		resp = query(t, c, types.QueryCodesRequest{}, 0)
		require.Equal(t, []types.Hash{f.CodeHash}, *resp.Codes)

		_, err := c.Query(context.Background(), types.NewQueryRequest(types.QueryCodeRequest{Hash: "00"}), 0)
		require.ErrorIs(t, err, dango.ErrNotFound)
	})

	t.Run("account", func(t *testing.T) {
		f, c := setup(t)
		resp := query(t, c, types.QueryAccountRequest{Address: f.Echo}, 0)
		require.Equal(t, f.CodeHash, resp.Account.CodeHash)

		_, err := c.Query(context.Background(), types.NewQueryRequest(types.QueryAccountRequest{Address: f.Alice}), 0)
		require.ErrorIs(t, err, dango.ErrNotFound)

		resp = query(t, c, types.QueryAccountsRequest{}, 0)
		require.Len(t, *resp.Accounts, 1)

		_, err = c.Query(context.Background(), types.NewQueryRequest(types.QueryAccountRequest{Address: f.Echo}), 1)
		require.ErrorIs(t, err, dango.ErrNotFound, "contract did not exist at genesis")
	})

	t.Run("wasm_raw", func(t *testing.T) {
		f, c := setup(t)
		resp := query(t, c, types.QueryWasmRawRequest{Contract: f.Echo, Key: types.Binary("k")}, 0)
		require.NotNil(t, resp.WasmRaw.Value)
		require.Equal(t, types.Binary("v"), *resp.WasmRaw.Value)

		resp = query(t, c, types.QueryWasmRawRequest{Contract: f.Echo, Key: types.Binary("absent")}, 0)
		require.Nil(t, resp.WasmRaw.Value)
	})

	t.Run("wasm_smart", func(t *testing.T) {
		f, c := setup(t)
		msg := json.RawMessage(`{"ping":{"n":1}}`)
		resp := query(t, c, types.QueryWasmSmartRequest{Contract: f.Echo, Msg: msg}, 0)
		require.Equal(t, f.Echo, resp.WasmSmart.Contract)
		require.JSONEq(t, string(msg), string(resp.WasmSmart.Data))
	})

	t.Run("wasm_smart_errors", func(t *testing.T) {
		f, c := setup(t)
		_, err := c.Query(context.Background(), types.NewQueryRequest(types.QueryWasmSmartRequest{
			Contract: f.Echo, Msg: json.RawMessage(`{"fail":{}}`),
		}), 0)
		require.ErrorIs(t, err, dango.ErrQueryFailed)

		_, err = c.Query(context.Background(), types.NewQueryRequest(types.QueryWasmSmartRequest{
			Contract: f.Echo, Msg: json.RawMessage(`{"missing":{}}`),
		}), 0)
		require.ErrorIs(t, err, dango.ErrNotFound)

		_, err = c.Query(context.Background(), types.NewQueryRequest(types.QueryWasmSmartRequest{
			Contract: Addr("nowhere"), Msg: json.RawMessage(`{}`),
		}), 0)
		require.ErrorIs(t, err, dango.ErrNotFound)
	})

	t.Run("app_config", func(t *testing.T) {
		f, c := setup(t)
		resp := query(t, c, types.QueryAppConfigRequest{}, 0)
		cfg, err := types.ParseAppConfig(*resp.AppConfig)
		require.NoError(t, err)
		raw, ok := cfg.Lookup("bank")
		require.True(t, ok)
		require.JSONEq(t, `"`+string(f.Bob)+`"`, string(raw))

		resp = query(t, c, types.QueryAppConfigRequest{}, 1)
		require.JSONEq(t, `{}`, string(*resp.AppConfig))
	})

	t.Run("unknown_height", func(t *testing.T) {
		f, c := setup(t)
		_, err := c.Query(context.Background(), types.NewQueryRequest(types.QueryInfoRequest{}), f.After+10)
		require.ErrorIs(t, err, dango.ErrNotFound)
	})

	t.Run("malformed_request", func(t *testing.T) {
		_, c := setup(t)
		_, err := c.Query(context.Background(), types.QueryRequest{}, 0)
		require.ErrorIs(t, err, dango.ErrProtocol)
	})

	t.Run("canceled_context", func(t *testing.T) {
		_, c := setup(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Query(ctx, types.NewQueryRequest(types.QueryInfoRequest{}), 0)
		require.ErrorIs(t, err, dango.ErrTransport)
	})

	t.Run("concurrent_queries", func(t *testing.T) {
		f, c := setup(t)
		g, ctx := errgroup.WithContext(context.Background())
		for i := range 32 {
			height := f.Before
			want := "100"
			if i%2 == 1 {
				height, want = 0, "150"
			}
			g.Go(func() error {
				resp, err := c.Query(ctx, types.NewQueryRequest(types.QueryBalanceRequest{Address: f.Alice, Denom: "uusdc"}), height)
				if err != nil {
					return err
				}
				if resp.Balance.Amount != want {
					return fmt.Errorf("height %d: got %s, want %s", height, resp.Balance.Amount, want)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
	})
}
