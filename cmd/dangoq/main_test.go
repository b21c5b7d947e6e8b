package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/config"
	"github.com/blockberries/dango/example/accountfactory"
	"github.com/blockberries/dango/example/safe"
	"github.com/blockberries/dango/example/tokenfactory"
	"github.com/blockberries/dango/local"
	"github.com/blockberries/dango/server"
	dangotest "github.com/blockberries/dango/testing"
	"github.com/blockberries/dango/types"
)

var (
	tokenFactoryAddr   = dangotest.Addr("token-factory")
	accountFactoryAddr = dangotest.Addr("account-factory")
	safeAddr           = dangotest.Addr("safe")
	alice              = dangotest.Addr("alice")
)

// withChain points the CLI at an in-memory chain for the duration of
// the test.
func withChain(t *testing.T) *dangotest.Chain {
	t.Helper()
	chain := dangotest.NewChain("dango-1")
	chain.Commit(func(s *dangotest.State) {
		tf := tokenfactory.New(tokenfactory.Config{})
		tf.SetAdmin("factory/alice/gold", alice)
		s.Deploy(tokenFactoryAddr, s.StoreCode(types.Binary("tf")), tf)
		s.Deploy(accountFactoryAddr, s.StoreCode(types.Binary("af")), accountfactory.New(accountFactoryAddr))

		sf := safe.New(map[types.Username]uint32{"alice": 1, "bob": 1}, 2)
		id := sf.Propose("pay")
		require.NoError(t, sf.Vote(id, "alice", types.VoteYes))
		s.Deploy(safeAddr, s.StoreCode(types.Binary("safe")), sf)

		s.SetBalance(alice, "uusdc", sdkmath.NewInt(42))
		s.SetAppConfig(types.AppConfigKeyTokenFactory, tokenFactoryAddr)
		s.SetAppConfig(types.AppConfigKeyAddresses, types.AppAddresses{AccountFactory: accountFactoryAddr})
	})

	prev := dial
	dial = func(context.Context, *config.Config) (dango.Transport, error) {
		return local.NewTransport(server.NewBackendRouter(chain)), nil
	}
	t.Cleanup(func() { dial = prev })
	return chain
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenAdmin(t *testing.T) {
	withChain(t)
	out, err := execute(t, "token-admin", "factory/alice/gold")
	require.NoError(t, err)

	var got types.Addr
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, alice, got)

	_, err = execute(t, "token-admin", "factory/bob/silver")
	require.ErrorIs(t, err, dango.ErrNotFound)
}

func TestTokenAdmins(t *testing.T) {
	withChain(t)
	out, err := execute(t, "token-admins", "--limit", "5")
	require.NoError(t, err)

	var got map[types.Denom]types.Addr
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, map[types.Denom]types.Addr{"factory/alice/gold": alice}, got)
}

func TestNextAccountAddress(t *testing.T) {
	withChain(t)
	out, err := execute(t, "next-account-address", "alice", "--account-type", "margin")
	require.NoError(t, err)

	var got types.Addr
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, accountfactory.DeriveAddress(accountFactoryAddr, "alice", types.AccountTypeMargin, 0), got)
}

func TestVotes(t *testing.T) {
	withChain(t)
	out, err := execute(t, "votes", string(safeAddr), "1")
	require.NoError(t, err)
	require.JSONEq(t, `{"alice":"yes"}`, out)

	_, err = execute(t, "votes", string(safeAddr), "one")
	require.ErrorContains(t, err, "invalid proposal id")
}

func TestAppConfigAndInfo(t *testing.T) {
	withChain(t)
	out, err := execute(t, "app-config", "addresses.account_factory")
	require.NoError(t, err)
	require.JSONEq(t, `"`+string(accountFactoryAddr)+`"`, out)

	out, err = execute(t, "app-config", "--height", "1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, out)

	out, err = execute(t, "info")
	require.NoError(t, err)
	var info types.InfoResponse
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, "dango-1", info.ChainID)
}

func TestBalanceAndSmart(t *testing.T) {
	withChain(t)
	out, err := execute(t, "balance", string(alice), "uusdc")
	require.NoError(t, err)
	require.JSONEq(t, `{"denom":"uusdc","amount":"42"}`, out)

	out, err = execute(t, "balance", string(alice))
	require.NoError(t, err)
	require.JSONEq(t, `[{"denom":"uusdc","amount":"42"}]`, out)

	out, err = execute(t, "smart", string(tokenFactoryAddr), `{"admin":{"denom":"factory/alice/gold"}}`)
	require.NoError(t, err)
	require.JSONEq(t, `"`+string(alice)+`"`, out)

	_, err = execute(t, "smart", string(tokenFactoryAddr), `{not json`)
	require.ErrorContains(t, err, "not valid JSON")
}

func TestConfigFlags(t *testing.T) {
	withChain(t)
	path := filepath.Join(t.TempDir(), "dango.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node:\n  grpc_addr: example:9090\n  chain_id: dango-1\n"), 0o600))

	_, err := execute(t, "--config", path, "info")
	require.NoError(t, err)

	_, err = execute(t, "--log-level", "shouty", "info")
	require.ErrorContains(t, err, "invalid log_level")

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "info")
	require.ErrorContains(t, err, "failed to read config file")
}

func TestMetricsEnabled(t *testing.T) {
	withChain(t)
	path := filepath.Join(t.TempDir(), "dango.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  enabled: true\n"), 0o600))

	out, err := execute(t, "--config", path, "token-admin", "factory/alice/gold")
	require.NoError(t, err)
	require.Contains(t, out, string(alice))
}

func TestDiskCacheDir(t *testing.T) {
	withChain(t)
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "dango.yaml")
	body := "node:\n  chain_id: dango-1\ncache:\n  dir: " + filepath.Join(dir, "appconfig") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	// The database is closed after every run, so a second run can reopen it.
	for range 2 {
		out, err := execute(t, "--config", path, "--height", "2", "token-admin", "factory/alice/gold")
		require.NoError(t, err)
		require.Contains(t, out, string(alice))
	}
}
