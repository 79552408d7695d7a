// Package catalog provides the list of testnets to run tasks on. The list comes
// from a remote catalog when one is configured and reachable, and from a built
// in list otherwise.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/allegro/bigcache/v3"
	"github.com/go-resty/resty/v2"

	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
)

const (
	cacheKey = "testnets"

	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 30 * time.Minute
)

// Response is the document served by a catalog endpoint
type Response struct {
	Testnets []*model.Network `json:"testnets"`
}

type Client struct {
	url      string
	http     *resty.Client
	cache    *bigcache.BigCache
	fallback []*model.Network
	logger   sdklogging.Logger
}

type Option func(*Client)

func WithCache(cache *bigcache.BigCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithFallback(networks []*model.Network) Option {
	return func(c *Client) { c.fallback = networks }
}

func WithHTTPClient(client *resty.Client) Option {
	return func(c *Client) { c.http = client }
}

// New creates a catalog client. An empty url always serves the fallback list.
func New(url string, logger sdklogging.Logger, opts ...Option) *Client {
	c := &Client{
		url:      url,
		http:     resty.New().SetTimeout(DefaultTimeout),
		fallback: DefaultNetworks(),
		logger:   applog.Ensure(logger),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.http.SetHeaders(map[string]string{
		"Accept":     "application/json",
		"User-Agent": "ap-airdrop/1.0",
	})

	return c
}

// NewCache builds the response cache, entries expire after ttl
func NewCache(ttl time.Duration) (*bigcache.BigCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return bigcache.New(context.Background(), bigcache.Config{
		// number of shards (must be a power of 2)
		Shards: 16,

		// time after which entry can be evicted
		LifeWindow: ttl,

		// bigcache has a one second resolution
		CleanWindow: time.Minute,

		MaxEntriesInWindow: 64,

		// a catalog document easily takes a few kB
		MaxEntrySize: 64 * 1024,

		HardMaxCacheSize: 8,
	})
}

// Networks returns the catalog. Cached responses are served first, an empty or
// unreachable catalog falls back to the built in list. It never fails.
func (c *Client) Networks(ctx context.Context) []*model.Network {
	if c.url == "" {
		return c.fallbackNetworks()
	}

	if networks, ok := c.cached(); ok {
		return networks
	}

	networks, err := c.Fetch(ctx)
	if err != nil {
		c.logger.Warn("catalog unavailable, using built in list", "url", c.url, "error", err)
		return c.fallbackNetworks()
	}

	if len(networks) == 0 {
		c.logger.Warn("catalog is empty, using built in list", "url", c.url)
		return c.fallbackNetworks()
	}

	c.store(networks)
	return networks
}

// Fetch downloads and normalizes the remote catalog, bypassing the cache
func (c *Client) Fetch(ctx context.Context) ([]*model.Network, error) {
	var body Response

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("cannot reach catalog: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("catalog responded with status %d", resp.StatusCode())
	}

	return model.UniqueNetworks(body.Testnets), nil
}

// Invalidate drops the cached response
func (c *Client) Invalidate() {
	if c.cache == nil {
		return
	}

	if err := c.cache.Delete(cacheKey); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		c.logger.Warn("cannot invalidate catalog cache", "error", err)
	}
}

func (c *Client) cached() ([]*model.Network, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(cacheKey)
	if err != nil {
		return nil, false
	}

	var networks []*model.Network
	if err := json.Unmarshal(data, &networks); err != nil {
		c.logger.Warn("dropping corrupted catalog cache entry", "error", err)
		c.Invalidate()
		return nil, false
	}

	return networks, true
}

func (c *Client) store(networks []*model.Network) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(networks)
	if err != nil {
		return
	}

	if err := c.cache.Set(cacheKey, data); err != nil {
		c.logger.Warn("cannot cache catalog", "error", err)
	}
}

// fallbackNetworks hands out copies so callers may normalize or reorder them
func (c *Client) fallbackNetworks() []*model.Network {
	out := make([]*model.Network, len(c.fallback))
	for i, n := range c.fallback {
		cp := *n
		cp.Tasks = append([]model.TaskKind{}, n.Tasks...)
		out[i] = &cp
	}
	return out
}
