// Package cache keeps per-vendor normalized articles in memory with a TTL,
// so frequent read requests do not refetch every feed.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"feedsync/internal/domain"
	"feedsync/internal/feed"
)

// Fetcher is the slice of the feed fetcher the cache needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.RawItem, error)
}

type entry struct {
	articles  []domain.Article
	fetchedAt time.Time
}

type key struct {
	vendorID string
	feedURL  string
}

// Config holds cache configuration.
type Config struct {
	TTL           time.Duration
	SummaryLength int
	// Now is the clock; tests inject a fake one. Defaults to time.Now.
	Now func() time.Time
}

// Cache is a TTL article cache keyed by (vendor id, feed URL). Two vendors
// sharing a URL get independent slots, so a vendor metadata change cannot
// cross-contaminate.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	sumLen  int
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[key]entry
}

// New creates a Cache around the given fetcher.
func New(fetcher Fetcher, cfg Config, logger *slog.Logger) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     cfg.TTL,
		sumLen:  cfg.SummaryLength,
		now:     cfg.Now,
		logger:  logger.With("component", "cache"),
		entries: make(map[key]entry),
	}
}

// Articles returns the vendor's articles, served from cache when the entry
// is younger than the TTL and force is false. Otherwise it fetches,
// normalizes and replaces the entry wholesale. The second return reports
// whether the result came from cache.
func (c *Cache) Articles(ctx context.Context, vendor domain.Vendor, force bool) ([]domain.Article, bool, error) {
	k := key{vendorID: vendor.ID, feedURL: vendor.FeedURL}

	if !force {
		c.mu.RLock()
		e, ok := c.entries[k]
		c.mu.RUnlock()
		if ok && c.now().Sub(e.fetchedAt) < c.ttl {
			return e.articles, true, nil
		}
	}

	raw, err := c.fetcher.Fetch(ctx, vendor.FeedURL)
	if err != nil {
		// The stale entry, if any, stays untouched; other vendors are
		// unaffected either way.
		return nil, false, err
	}

	now := c.now()
	articles := make([]domain.Article, 0, len(raw))
	for _, item := range raw {
		articles = append(articles, feed.Normalize(item, vendor.ID, vendor.Name, now, c.sumLen))
	}

	c.mu.Lock()
	c.entries[k] = entry{articles: articles, fetchedAt: now}
	c.mu.Unlock()

	c.logger.Debug("cache entry replaced", "vendor", vendor.ID, "articles", len(articles))

	return articles, false, nil
}

// Aggregate reads several vendors through the cache, concatenates the
// results, sorts them newest-first and caps them at limit (limit <= 0 means
// no cap). Per-vendor failures are collected and do not prevent the
// remaining vendors' results from being returned. The bool reports whether
// any part of the result was served from cache.
func (c *Cache) Aggregate(ctx context.Context, vendors []domain.Vendor, force bool, limit int) ([]domain.Article, bool, []domain.VendorError) {
	var (
		combined []domain.Article
		anyHit   bool
		errs     []domain.VendorError
	)

	for _, v := range vendors {
		if !v.HasFeed() {
			continue
		}
		articles, hit, err := c.Articles(ctx, v, force)
		if err != nil {
			c.logger.Warn("vendor read failed", "vendor", v.ID, "error", err)
			errs = append(errs, domain.VendorError{VendorID: v.ID, VendorName: v.Name, Error: err.Error()})
			continue
		}
		combined = append(combined, articles...)
		anyHit = anyHit || hit
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].PublishedAt.After(combined[j].PublishedAt)
	})

	if limit > 0 && len(combined) > limit {
		combined = combined[:limit]
	}

	return combined, anyHit, errs
}
