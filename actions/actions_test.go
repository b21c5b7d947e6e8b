package actions_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/actions"
	"github.com/blockberries/dango/appconfig"
	"github.com/blockberries/dango/example/accountfactory"
	"github.com/blockberries/dango/example/safe"
	"github.com/blockberries/dango/example/tokenfactory"
	dangotest "github.com/blockberries/dango/testing"
	"github.com/blockberries/dango/types"
)

// world is a chain with the three contracts deployed and registered.
type world struct {
	h        *dangotest.Harness
	actions  *actions.Actions
	tokens   types.Addr
	accounts types.Addr
	safe     types.Addr
	alice    types.Addr
	bob      types.Addr
	carol    types.Addr
	proposal types.ProposalID
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		h:        dangotest.NewHarness(t, "dango-1"),
		tokens:   dangotest.Addr("token-factory"),
		accounts: dangotest.Addr("account-factory"),
		safe:     dangotest.Addr("safe"),
		alice:    dangotest.Addr("alice"),
		bob:      dangotest.Addr("bob"),
		carol:    dangotest.Addr("carol"),
	}
	w.h.Commit(func(s *dangotest.State) {
		tf := tokenfactory.New(tokenfactory.Config{DenomCreationFee: &types.Coin{Denom: "uusdc", Amount: "10"}})
		tf.SetAdmin("factory/alice/a", w.alice)
		tf.SetAdmin("factory/bob/b", w.bob)
		tf.SetAdmin("factory/carol/c", w.carol)
		s.Deploy(w.tokens, s.StoreCode(types.Binary("token-factory")), tf)

		af := accountfactory.New(w.accounts)
		s.Deploy(w.accounts, s.StoreCode(types.Binary("account-factory")), af)

		sf := safe.New(map[types.Username]uint32{"alice": 1, "bob": 1, "carol": 1}, 2)
		w.proposal = sf.Propose("upgrade")
		if err := sf.Vote(w.proposal, "alice", types.VoteYes); err != nil {
			t.Fatal(err)
		}
		if err := sf.Vote(w.proposal, "bob", types.VoteNo); err != nil {
			t.Fatal(err)
		}
		s.Deploy(w.safe, s.StoreCode(types.Binary("safe")), sf)

		s.SetAppConfig(types.AppConfigKeyTokenFactory, w.tokens)
		s.SetAppConfig(types.AppConfigKeyAddresses, types.AppAddresses{AccountFactory: w.accounts})
	})
	w.actions = actions.New(w.h.Client, nil)
	return w
}

func TestGetTokenAdmin(t *testing.T) {
	w := newWorld(t)
	admin, err := w.actions.GetTokenAdmin(context.Background(), actions.GetTokenAdminParams{Denom: "factory/bob/b"})
	require.NoError(t, err)
	require.Equal(t, w.bob, admin)
}

func TestGetTokenAdmin_NoAdmin(t *testing.T) {
	w := newWorld(t)
	_, err := w.actions.GetTokenAdmin(context.Background(), actions.GetTokenAdminParams{Denom: "factory/nobody/x"})
	require.ErrorIs(t, err, dango.ErrNotFound)
}

func TestGetTokenAdmin_NullAnswer(t *testing.T) {
	m := &dangotest.MockTransport{
		AppConfigFn: func(context.Context, types.Height) (any, error) {
			return map[string]any{"token_factory": "dango1tf"}, nil
		},
		WasmSmartFn: func(context.Context, types.Addr, json.RawMessage, types.Height) (any, error) {
			return json.RawMessage(`null`), nil
		},
	}
	a := actions.New(dango.NewPublicClient(m), nil)

	_, err := a.GetTokenAdmin(context.Background(), actions.GetTokenAdminParams{Denom: "uatom"})
	require.ErrorIs(t, err, dango.ErrNotFound)
}

func TestGetTokenAdmin_WireFormat(t *testing.T) {
	m := &dangotest.MockTransport{
		AppConfigFn: func(context.Context, types.Height) (any, error) {
			return map[string]any{"token_factory": "dango1tf"}, nil
		},
		WasmSmartFn: func(context.Context, types.Addr, json.RawMessage, types.Height) (any, error) {
			return "dango1admin", nil
		},
	}
	a := actions.New(dango.NewPublicClient(m), nil)

	admin, err := a.GetTokenAdmin(context.Background(), actions.GetTokenAdminParams{Denom: "uatom", Height: 12})
	require.NoError(t, err)
	require.Equal(t, types.Addr("dango1admin"), admin)

	rec := m.Recorded()
	require.Len(t, rec, 2)
	require.Equal(t, types.KindAppConfig, rec[0].Request.Kind())
	require.Equal(t, types.Height(12), rec[0].Height)
	require.Equal(t, types.Addr("dango1tf"), rec[1].Request.WasmSmart.Contract)
	require.Equal(t, types.Height(12), rec[1].Height)
	require.JSONEq(t, `{"admin":{"denom":"uatom"}}`, string(rec[1].Request.WasmSmart.Msg))
}

func TestGetAllTokenAdmins_Page(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	limit := uint32(2)
	page, err := w.actions.GetAllTokenAdmins(ctx, actions.GetAllTokenAdminsParams{Limit: &limit})
	require.NoError(t, err)
	require.Equal(t, map[types.Denom]types.Addr{
		"factory/alice/a": w.alice,
		"factory/bob/b":   w.bob,
	}, page)

	after := types.Denom("factory/bob/b")
	page, err = w.actions.GetAllTokenAdmins(ctx, actions.GetAllTokenAdminsParams{StartAfter: &after})
	require.NoError(t, err)
	require.Equal(t, map[types.Denom]types.Addr{"factory/carol/c": w.carol}, page)

	all, err := w.actions.GetAllTokenAdmins(ctx, actions.GetAllTokenAdminsParams{})
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestGetAllTokenAdmins_OmitsUnsetParams(t *testing.T) {
	m := &dangotest.MockTransport{
		AppConfigFn: func(context.Context, types.Height) (any, error) {
			return map[string]any{"token_factory": "dango1tf"}, nil
		},
		WasmSmartFn: func(context.Context, types.Addr, json.RawMessage, types.Height) (any, error) {
			return map[string]string{}, nil
		},
	}
	a := actions.New(dango.NewPublicClient(m), nil)

	_, err := a.GetAllTokenAdmins(context.Background(), actions.GetAllTokenAdminsParams{})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"admins": map[string]any{}}, m.LastSmartMsg())
}

func TestGetTokenFactoryConfig(t *testing.T) {
	w := newWorld(t)
	cfg, err := w.actions.GetTokenFactoryConfig(context.Background(), actions.GetTokenFactoryConfigParams{})
	require.NoError(t, err)
	require.NotNil(t, cfg.DenomCreationFee)
	require.Equal(t, types.Coin{Denom: "uusdc", Amount: "10"}, *cfg.DenomCreationFee)
}

func TestGetNextAccountAddress(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p := actions.GetNextAccountAddressParams{Username: "alice", AccountType: types.AccountTypeSpot}

	addr, err := w.actions.GetNextAccountAddress(ctx, p)
	require.NoError(t, err)
	require.Equal(t, accountfactory.DeriveAddress(w.accounts, "alice", types.AccountTypeSpot, 0), addr)

	again, err := w.actions.GetNextAccountAddress(ctx, p)
	require.NoError(t, err)
	require.Equal(t, addr, again, "no state change, same answer")

	// Registering the predicted account moves the index forward.
	latest := w.h.Commit(func(s *dangotest.State) {
		af := s.Contracts[w.accounts].(*accountfactory.Contract)
		got, err := af.Register("alice", types.AccountTypeSpot)
		require.NoError(t, err)
		require.Equal(t, addr, got)
	})

	next, err := w.actions.GetNextAccountAddress(ctx, p)
	require.NoError(t, err)
	require.NotEqual(t, addr, next)
	require.Equal(t, accountfactory.DeriveAddress(w.accounts, "alice", types.AccountTypeSpot, 1), next)

	p.Height = latest - 1
	old, err := w.actions.GetNextAccountAddress(ctx, p)
	require.NoError(t, err)
	require.Equal(t, addr, old, "historical height sees the old index")
}

func TestGetNextAccountAddress_Validation(t *testing.T) {
	m := &dangotest.MockTransport{}
	a := actions.New(dango.NewPublicClient(m), nil)

	_, err := a.GetNextAccountAddress(context.Background(), actions.GetNextAccountAddressParams{AccountType: types.AccountTypeSpot})
	require.Error(t, err)
	_, err = a.GetNextAccountAddress(context.Background(), actions.GetNextAccountAddressParams{Username: "alice", AccountType: "vault"})
	require.Error(t, err)
	require.Zero(t, m.Calls.Load())
}

func TestGetNextAccountAddress_FactoryNotRegistered(t *testing.T) {
	h := dangotest.NewHarness(t, "dango-1")
	a := actions.New(h.Client, nil)

	_, err := a.GetNextAccountAddress(context.Background(), actions.GetNextAccountAddressParams{
		Username: "alice", AccountType: types.AccountTypeSpot,
	})
	k, ok := dango.IsKeyNotFound(err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, actions.KeyAccountFactory, k.Key)
}

func TestAccountQueries(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	empty, err := w.actions.GetAccountsByUsername(ctx, actions.GetAccountsByUsernameParams{Username: "bob"})
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = w.actions.GetUser(ctx, actions.GetUserParams{Username: "bob"})
	require.ErrorIs(t, err, dango.ErrNotFound)

	var margin types.Addr
	w.h.Commit(func(s *dangotest.State) {
		af := s.Contracts[w.accounts].(*accountfactory.Contract)
		margin, err = af.Register("bob", types.AccountTypeMargin)
		require.NoError(t, err)
	})

	accounts, err := w.actions.GetAccountsByUsername(ctx, actions.GetAccountsByUsernameParams{Username: "bob"})
	require.NoError(t, err)
	require.Equal(t, map[types.Addr]actions.AccountInfo{margin: {Index: 0, Type: types.AccountTypeMargin}}, accounts)

	user, err := w.actions.GetUser(ctx, actions.GetUserParams{Username: "bob"})
	require.NoError(t, err)
	require.Equal(t, types.Username("bob"), user.Username)
	require.Len(t, user.Accounts, 1)
}

func TestGetVotesForProposal(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	votes, err := w.actions.GetVotesForProposal(ctx, actions.GetVotesForProposalParams{Address: w.safe, ProposalID: w.proposal})
	require.NoError(t, err)
	require.Equal(t, map[types.Username]types.Vote{"alice": types.VoteYes, "bob": types.VoteNo}, votes)

	_, err = w.actions.GetVotesForProposal(ctx, actions.GetVotesForProposalParams{Address: w.safe, ProposalID: 99})
	require.ErrorIs(t, err, dango.ErrNotFound)

	_, err = w.actions.GetVotesForProposal(ctx, actions.GetVotesForProposalParams{ProposalID: 1})
	require.Error(t, err)
}

func TestGetVotesForProposal_SkipsRegistry(t *testing.T) {
	m := &dangotest.MockTransport{
		WasmSmartFn: func(context.Context, types.Addr, json.RawMessage, types.Height) (any, error) {
			return map[string]string{"alice": "yes"}, nil
		},
	}
	a := actions.New(dango.NewPublicClient(m), nil)

	_, err := a.GetVotesForProposal(context.Background(), actions.GetVotesForProposalParams{Address: "dango1safe", ProposalID: 7})
	require.NoError(t, err)
	require.Zero(t, m.AppConfigCalls.Load())
	require.Equal(t, map[string]any{"votes": map[string]any{"proposal_id": float64(7)}}, m.LastSmartMsg())
	require.Equal(t, types.Addr("dango1safe"), m.Recorded()[0].Request.WasmSmart.Contract)
}

func TestGetProposal(t *testing.T) {
	w := newWorld(t)
	p, err := w.actions.GetProposal(context.Background(), actions.GetProposalParams{Address: w.safe, ProposalID: w.proposal})
	require.NoError(t, err)
	require.Equal(t, "upgrade", p.Title)
	require.Equal(t, string(safe.StatusVoting), p.Status)
	require.EqualValues(t, 1, p.Yes)
	require.EqualValues(t, 1, p.No)
}

func TestActions_HeightZeroIsLatest(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	latest := w.h.Chain.Height()

	a, err := w.actions.GetTokenAdmin(ctx, actions.GetTokenAdminParams{Denom: "factory/alice/a"})
	require.NoError(t, err)
	b, err := w.actions.GetTokenAdmin(ctx, actions.GetTokenAdminParams{Denom: "factory/alice/a", Height: latest})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestActions_OneRegistryFetchPerHeight(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	for range 3 {
		_, err := w.actions.GetTokenAdmin(ctx, actions.GetTokenAdminParams{Denom: "factory/alice/a"})
		require.NoError(t, err)
		_, err = w.actions.GetAllTokenAdmins(ctx, actions.GetAllTokenAdminsParams{})
		require.NoError(t, err)
		_, err = w.actions.GetNextAccountAddress(ctx, actions.GetNextAccountAddressParams{
			Username: "carol", AccountType: types.AccountTypeSafe,
		})
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, w.actions.Resolver().Fetches())

	_, err := w.actions.GetTokenAdmin(ctx, actions.GetTokenAdminParams{Denom: "factory/alice/a", Height: 1})
	require.ErrorIs(t, err, dango.ErrKeyNotFound, "registry was empty at genesis")
	require.EqualValues(t, 2, w.actions.Resolver().Fetches())
}

func TestActions_SharedResolver(t *testing.T) {
	m := &dangotest.MockTransport{
		AppConfigFn: func(context.Context, types.Height) (any, error) {
			return map[string]any{"token_factory": "dango1tf"}, nil
		},
		WasmSmartFn: func(context.Context, types.Addr, json.RawMessage, types.Height) (any, error) {
			return "dango1admin", nil
		},
	}
	c := dango.NewPublicClient(m)
	r := appconfig.NewResolver()

	for range 4 {
		a := actions.New(c, r)
		_, err := a.GetTokenAdmin(context.Background(), actions.GetTokenAdminParams{Denom: "uatom"})
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, m.AppConfigCalls.Load())
}

func TestActions_ProtocolMismatch(t *testing.T) {
	wrong := types.InfoResult(types.InfoResponse{ChainID: "x"})
	m := &dangotest.MockTransport{
		AppConfigFn: func(context.Context, types.Height) (any, error) {
			return map[string]any{"token_factory": "dango1tf"}, nil
		},
		Responses: map[types.QueryKind]types.QueryResponse{types.KindWasmSmart: wrong},
	}
	a := actions.New(dango.NewPublicClient(m), nil)

	_, err := a.GetTokenAdmin(context.Background(), actions.GetTokenAdminParams{Denom: "uatom"})
	p, ok := dango.IsProtocolError(err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, types.KindWasmSmart, p.Expected)
	require.Equal(t, types.KindInfo, p.Got)
}

func TestActions_ChainQueries(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	info, err := w.actions.GetChainInfo(ctx, actions.GetChainInfoParams{})
	require.NoError(t, err)
	require.Equal(t, "dango-1", info.ChainID)

	cfg, err := w.actions.GetAppConfig(ctx, actions.GetAppConfigParams{})
	require.NoError(t, err)
	require.Equal(t, []string{"addresses", "token_factory"}, cfg.Keys())

	tf, err := actions.GetAppConfigValue[types.Addr](ctx, w.actions, actions.KeyTokenFactory, 0)
	require.NoError(t, err)
	require.Equal(t, w.tokens, tf)

	acc, err := w.actions.GetContractInfo(ctx, actions.GetContractInfoParams{Address: w.safe})
	require.NoError(t, err)
	require.Equal(t, w.safe, acc.Address)

	bal, err := w.actions.GetBalance(ctx, actions.GetBalanceParams{Address: w.alice, Denom: "uusdc"})
	require.NoError(t, err)
	require.Equal(t, "0", bal.Amount)

	bals, err := w.actions.GetBalances(ctx, actions.GetBalancesParams{Address: w.alice})
	require.NoError(t, err)
	require.Empty(t, bals)

	supply, err := w.actions.GetSupply(ctx, actions.GetSupplyParams{Denom: "uusdc"})
	require.NoError(t, err)
	require.Equal(t, "0", supply.Amount)
}
