package appconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/blockberries/dango/types"
)

func memDB(t *testing.T) *leveldb.DB {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDiskCache_PersistsHistoricalPerChain(t *testing.T) {
	db := memDB(t)
	c := NewDiskCache(db, nil)
	cfg := types.AppConfig{"bank": []byte(`"dango1bank"`)}

	c.Set(Key{ClientID: "dango-1/3", Height: 10}, cfg)

	// A client created later in another process shares the chain prefix.
	other := NewDiskCache(db, nil)
	got, ok := other.Get(Key{ClientID: "dango-1/17", Height: 10})
	require.True(t, ok)
	require.JSONEq(t, `"dango1bank"`, string(got["bank"]))

	_, ok = other.Get(Key{ClientID: "dango-2/17", Height: 10})
	require.False(t, ok, "chains do not share registries")
}

func TestDiskCache_LatestAndChainlessStayInMemory(t *testing.T) {
	db := memDB(t)
	mem, err := NewMemoryCache()
	require.NoError(t, err)
	c := NewDiskCache(db, mem)
	cfg := types.AppConfig{"k": []byte(`1`)}

	c.Set(Key{ClientID: "dango-1/3", Height: 0}, cfg)
	c.Set(Key{ClientID: "4", Height: 9}, cfg)
	require.Equal(t, 2, mem.Len())

	_, ok := NewDiskCache(db, nil).Get(Key{ClientID: "dango-1/3", Height: 0})
	require.False(t, ok, "latest registries are not persisted")

	got, ok := c.Get(Key{ClientID: "4", Height: 9})
	require.True(t, ok)
	require.Equal(t, cfg, got)
}

func TestDiskCache_DeleteAndClear(t *testing.T) {
	c := NewDiskCache(memDB(t), nil)
	cfg := types.AppConfig{"k": []byte(`1`)}
	a := Key{ClientID: "dango-1/1", Height: 1}
	b := Key{ClientID: "dango-1/1", Height: 2}
	c.Set(a, cfg)
	c.Set(b, cfg)

	c.Delete(a)
	_, ok := c.Get(a)
	require.False(t, ok)
	_, ok = c.Get(b)
	require.True(t, ok)

	c.Clear()
	_, ok = c.Get(b)
	require.False(t, ok)
}

func TestDiskCache_ServesResolver(t *testing.T) {
	db := memDB(t)
	q := &countingQuerier{id: "dango-1/1"}
	r := NewResolver(WithCache(NewDiskCache(db, nil)))

	_, err := r.Config(context.Background(), q, 7)
	require.NoError(t, err)

	// A fresh resolver and client on the same chain hit the disk.
	q2 := &countingQuerier{id: "dango-1/2"}
	r2 := NewResolver(WithCache(NewDiskCache(db, nil)))
	_, err = r2.Config(context.Background(), q2, 7)
	require.NoError(t, err)
	require.Equal(t, 1, q.calls)
	require.Zero(t, q2.calls)
}

func TestOpenDiskCache(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir(), nil)
	require.NoError(t, err)
	c.Set(Key{ClientID: "dango-1/1", Height: 3}, types.AppConfig{})
	_, ok := c.Get(Key{ClientID: "dango-1/1", Height: 3})
	require.True(t, ok)
	require.NoError(t, c.Close())
}
