package appconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blockberries/dango/types"
)

var _ Cache = (*DiskCache)(nil)

const diskPrefix = "appconfig/"

// DiskCache persists historical registries in LevelDB so they survive
// process restarts. Registries are stored per chain rather than per
// client, since client IDs do not outlive the process; only keys whose
// client ID carries a chain ID ("dango-1/3") are persisted. Latest-height
// and chainless keys go to the in-memory fallback.
//
// Read and write failures degrade to cache misses.
type DiskCache struct {
	db       *leveldb.DB
	fallback Cache
}

// NewDiskCache wraps an open database. A nil fallback gets a default
// MemoryCache.
func NewDiskCache(db *leveldb.DB, fallback Cache) *DiskCache {
	if fallback == nil {
		fallback, _ = NewMemoryCache()
	}
	return &DiskCache{db: db, fallback: fallback}
}

// OpenDiskCache opens (or creates) a LevelDB database at path.
func OpenDiskCache(path string, fallback Cache) (*DiskCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open app config cache %s: %w", path, err)
	}
	return NewDiskCache(db, fallback), nil
}

func diskKey(key Key) ([]byte, bool) {
	if key.Height == types.LatestHeight {
		return nil, false
	}
	i := strings.LastIndexByte(key.ClientID, '/')
	if i <= 0 {
		return nil, false
	}
	// Zero-padded so keys of one chain sort by height.
	return []byte(fmt.Sprintf("%s%s/%020d", diskPrefix, key.ClientID[:i], key.Height)), true
}

func (c *DiskCache) Get(key Key) (types.AppConfig, bool) {
	k, ok := diskKey(key)
	if !ok {
		return c.fallback.Get(key)
	}
	raw, err := c.db.Get(k, nil)
	if err != nil {
		return nil, false
	}
	var cfg types.AppConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false
	}
	return cfg, true
}

func (c *DiskCache) Set(key Key, cfg types.AppConfig) {
	k, ok := diskKey(key)
	if !ok {
		c.fallback.Set(key, cfg)
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := c.db.Put(k, raw, nil); err != nil {
		c.fallback.Set(key, cfg)
	}
}

func (c *DiskCache) Delete(key Key) {
	if k, ok := diskKey(key); ok {
		_ = c.db.Delete(k, nil)
	}
	c.fallback.Delete(key)
}

// Clear drops every persisted registry and empties the fallback.
func (c *DiskCache) Clear() {
	batch := new(leveldb.Batch)
	iter := c.db.NewIterator(util.BytesPrefix([]byte(diskPrefix)), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	_ = c.db.Write(batch, nil)
	c.fallback.Clear()
}

// Close closes the database.
func (c *DiskCache) Close() error {
	return c.db.Close()
}
