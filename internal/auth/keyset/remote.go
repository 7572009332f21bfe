// internal/auth/keyset/remote.go
package keyset

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"castingagency/internal/contextutil"
	"castingagency/internal/observability/logging"
	"castingagency/internal/observability/metrics"
)

// Defaults applied to zero Options fields
const (
	DefaultRefreshInterval  = 15 * time.Minute
	DefaultFetchTimeout     = 5 * time.Second
	DefaultMinForcedRefresh = 10 * time.Second
)

// Options configures a Remote key set
type Options struct {
	// RefreshInterval is the floor for background refreshes
	RefreshInterval time.Duration
	// FetchTimeout bounds every inline fetch
	FetchTimeout time.Duration
	// MinForcedRefresh is the minimum time between refreshes forced by an
	// unknown key id
	MinForcedRefresh time.Duration
	// HTTPClient is used for fetching; a client with FetchTimeout is created when nil
	HTTPClient *http.Client
}

// Remote is a KeySet backed by a JWKS endpoint. Keys are cached and refreshed
// in the background; an unknown key id forces at most one refresh.
type Remote struct {
	url     string
	cache   *jwk.Cache
	opts    Options
	logger  *logging.Logger
	metrics *metrics.Collector

	loaded atomic.Bool

	mu         sync.Mutex
	lastForced time.Time
	now        func() time.Time
}

// NewRemote registers url for background refresh. The cache stops refreshing
// when ctx is cancelled. Nothing is fetched until the first lookup.
func NewRemote(ctx context.Context, url string, opts Options, logger *logging.Logger, collector *metrics.Collector) (*Remote, error) {
	if url == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.MinForcedRefresh <= 0 {
		opts.MinForcedRefresh = DefaultMinForcedRefresh
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.FetchTimeout}
	}
	if logger == nil {
		logger = logging.Discard()
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(url,
		jwk.WithMinRefreshInterval(opts.RefreshInterval),
		jwk.WithHTTPClient(opts.HTTPClient),
	); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	return &Remote{
		url:     url,
		cache:   cache,
		opts:    opts,
		logger:  logger.WithModule("auth.keyset"),
		metrics: collector,
		now:     time.Now,
	}, nil
}

// URL returns the JWKS endpoint
func (r *Remote) URL() string {
	return r.url
}

// Key implements KeySet
func (r *Remote) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	logger := contextutil.LoggerOr(ctx, r.logger)

	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	set, err := r.cache.Get(fetchCtx, r.url)
	cancel()
	if !r.loaded.Load() {
		// Until the cache holds a set, Get fetches inline.
		r.metrics.RecordKeyFetch(metrics.KeyFetchLoad, err == nil)
		if err == nil {
			r.loaded.Store(true)
		}
	}
	if err != nil {
		logger.Error("Failed to load signing keys", "url", logging.RedactStringURL(r.url), logging.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if key, ok := set.LookupKeyID(kid); ok {
		return rawKey(key)
	}

	if !r.allowForcedRefresh() {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}

	logger.Debug("Unknown key id, refreshing signing keys", "kid", kid)
	fetchCtx, cancel = context.WithTimeout(ctx, r.opts.FetchTimeout)
	set, err = r.cache.Refresh(fetchCtx, r.url)
	cancel()
	r.metrics.RecordKeyFetch(metrics.KeyFetchForced, err == nil)
	if err != nil {
		logger.Error("Failed to refresh signing keys", "url", logging.RedactStringURL(r.url), logging.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if key, ok := set.LookupKeyID(kid); ok {
		return rawKey(key)
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (r *Remote) allowForcedRefresh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.lastForced.IsZero() && now.Sub(r.lastForced) < r.opts.MinForcedRefresh {
		return false
	}
	r.lastForced = now
	return true
}

func rawKey(key jwk.Key) (crypto.PublicKey, error) {
	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, errors.Join(ErrKeyNotFound, fmt.Errorf("failed to export key %q: %w", key.KeyID(), err))
	}
	return raw, nil
}
