package cache

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bradfitz/gomemcache/memcache"
	jsoniter "github.com/json-iterator/go"
)

// BundleCache stores assembled scrape bundles keyed by normalized url hash.
// A hit lets a repeat submission skip the fetch and discovery work entirely.
type BundleCache interface {
	GetBundle(url string) (*model.RawScrapeBundle, bool)
	SaveBundle(url string, bundle *model.RawScrapeBundle, force bool)
	Close()
}

type MemcachedClient struct {
	client *memcache.Client
	cfg    *config.CacheConfig
}

func NewMemcachedClient(cacheConfig *config.CacheConfig) *MemcachedClient {
	slog.Info("connecting to memcached...")
	ss := new(memcache.ServerList)
	err := ss.SetServers(cacheConfig.Servers...)
	if err != nil {
		slog.Error("failed to set memcached servers.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	c := &MemcachedClient{
		client: memcache.NewFromSelector(ss),
		cfg:    cacheConfig,
	}
	slog.Info("pinging the memcached.")
	err = c.client.Ping()
	if err != nil {
		slog.Error("connection to the memcached is failed.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to memcached!")

	return c
}

func (mc *MemcachedClient) GetBundle(url string) (*model.RawScrapeBundle, bool) {
	key := internal.HashURL(url)
	item, err := mc.client.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.Warn("failed to read bundle from cache.", slog.String("key", key),
				slog.String("err", err.Error()))
		}
		return nil, false
	}
	var bundle model.RawScrapeBundle
	if err = jsoniter.Unmarshal(item.Value, &bundle); err != nil {
		slog.Warn("failed to decode cached bundle.", slog.String("key", key),
			slog.String("err", err.Error()))
		return nil, false
	}
	slog.Debug("bundle served from cache.", slog.String("key", key), slog.String("url", url))
	return &bundle, true
}

// SaveBundle writes with the configured ttl. Forced scrapes get a short ttl
// so the next forced run re-fetches quickly.
func (mc *MemcachedClient) SaveBundle(url string, bundle *model.RawScrapeBundle, force bool) {
	ttl := mc.cfg.TtlForBundle
	if force {
		ttl = time.Minute
	}

	key := internal.HashURL(url)
	byteValue, err := jsoniter.Marshal(bundle)
	if err != nil {
		slog.Error("failed to encode bundle for cache.", slog.String("key", key),
			slog.String("err", err.Error()))
		return
	}
	item := &memcache.Item{
		Key:        key,
		Value:      byteValue,
		Expiration: int32(ttl.Seconds()),
	}
	if err = mc.client.Set(item); err != nil {
		slog.Error("failed to save bundle to cache.", slog.String("key", key),
			slog.String("err", err.Error()))
		return
	}
	slog.Debug("bundle saved to cache.", slog.String("key", key), slog.String("url", url))
}

func (mc *MemcachedClient) Close() {
	slog.Info("closing memcached connection.")
	err := mc.client.Close()
	if err != nil {
		slog.Error("failed to close memcached connection.", slog.String("err", err.Error()))
	}
}
