// Package appconfig resolves well-known contract addresses and settings
// from the chain's app-config registry.
//
// A Resolver fetches the whole registry at most once per (client,
// height) and serves every later lookup from its cache. Concurrent
// misses for the same key share one in-flight fetch.
package appconfig

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/blockberries/dango"
	"github.com/blockberries/dango/types"
)

// Resolver caches app-config registries per (client ID, height). It is
// safe for concurrent use and is meant to be shared by every action
// bound to the same clients.
type Resolver struct {
	cache        Cache
	fetchTimeout time.Duration
	group        singleflight.Group
	fetches      atomic.Int64
}

// DefaultFetchTimeout bounds one shared registry fetch.
const DefaultFetchTimeout = time.Minute

// Option customizes a Resolver.
type Option func(*Resolver)

// WithCache replaces the default memory cache.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithFetchTimeout bounds each shared registry fetch. 0 disables the
// bound, leaving callers' own contexts as the only limit on their wait.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.fetchTimeout = d
	}
}

// NewResolver creates a resolver backed by a memory cache with default
// settings unless WithCache is given.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{fetchTimeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		// Default options cannot fail validation.
		cache, _ := NewMemoryCache()
		r.cache = cache
	}
	return r
}

// Fetches returns how many registry queries the resolver has issued.
func (r *Resolver) Fetches() int64 {
	return r.fetches.Load()
}

// Invalidate drops the registry cached for q at height.
func (r *Resolver) Invalidate(q dango.Querier, height types.Height) {
	r.cache.Delete(Key{ClientID: q.ID(), Height: height})
}

// Config returns the registry as of height (0 = latest), fetching it
// through q on a cache miss. Failed fetches are not cached.
//
// Every caller waits for the shared fetch or for its own ctx, whichever
// ends first. The fetch keeps the values of the ctx that started it but
// not its cancellation, so one caller giving up never fails the others.
func (r *Resolver) Config(ctx context.Context, q dango.Querier, height types.Height) (types.AppConfig, error) {
	key := Key{ClientID: q.ID(), Height: height}
	logger := zerolog.Ctx(ctx).With().Stringer("app_config", key).Logger()

	if cfg, ok := r.cache.Get(key); ok {
		logger.Debug().Msg("app config cache hit")
		return cfg, nil
	}
	logger.Debug().Msg("app config cache miss, fetching")

	ch := r.group.DoChan(key.String(), func() (any, error) {
		// Re-check: a fetch that completed between our Get and DoChan
		// has already filled the cache.
		if cfg, ok := r.cache.Get(key); ok {
			return cfg, nil
		}
		fetchCtx := context.WithoutCancel(ctx)
		if r.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, r.fetchTimeout)
			defer cancel()
		}
		cfg, err := r.fetch(fetchCtx, q, height)
		if err != nil {
			return nil, err
		}
		r.cache.Set(key, cfg)
		return cfg, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(types.AppConfig), nil
	case <-ctx.Done():
		return nil, errorsmod.Wrapf(dango.ErrTransport, "app config at height %d: %s", height, ctx.Err())
	}
}

func (r *Resolver) fetch(ctx context.Context, q dango.Querier, height types.Height) (types.AppConfig, error) {
	r.fetches.Add(1)
	resp, err := q.Query(ctx, types.NewQueryRequest(types.QueryAppConfigRequest{}), height)
	if err != nil {
		return nil, err
	}
	if err := dango.CheckResponse(resp, types.KindAppConfig); err != nil {
		return nil, err
	}
	cfg, err := types.ParseAppConfig(*resp.AppConfig)
	if err != nil {
		return nil, dango.NewDecodeError("app config", err)
	}
	return cfg, nil
}

// Lookup resolves key at height and decodes its value as T. A dotted
// key ("addresses.account_factory") descends into nested objects when
// the registry has no entry under the full key.
//
// A missing key fails with *dango.KeyNotFoundError; a value that does
// not decode as T fails with *dango.DecodeError.
func Lookup[T any](ctx context.Context, r *Resolver, q dango.Querier, key string, height types.Height) (T, error) {
	var zero T
	cfg, err := r.Config(ctx, q, height)
	if err != nil {
		return zero, err
	}

	raw, ok := project(cfg, key)
	if !ok {
		return zero, dango.NewKeyNotFoundError(key, height)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, dango.NewDecodeError("app config key \""+key+"\"", err)
	}
	return v, nil
}

// Decode resolves the whole registry at height and decodes it as T.
func Decode[T any](ctx context.Context, r *Resolver, q dango.Querier, height types.Height) (T, error) {
	var zero T
	cfg, err := r.Config(ctx, q, height)
	if err != nil {
		return zero, err
	}
	var v T
	if err := cfg.Decode(&v); err != nil {
		return zero, dango.NewDecodeError("app config", err)
	}
	return v, nil
}

func project(cfg types.AppConfig, key string) (json.RawMessage, bool) {
	if raw, ok := cfg.Lookup(key); ok {
		return raw, true
	}
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return nil, false
	}
	raw, ok := cfg.Lookup(parts[0])
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		if raw, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return raw, true
}
