package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedsync/internal/domain"
	"feedsync/internal/feed"
)

// fakeFetcher serves canned items per URL and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	items map[string][]feed.RawItem
	errs  map[string]error
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		items: make(map[string][]feed.RawItem),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]feed.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.items[url], nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func rawItem(guid, title, pubDate string) feed.RawItem {
	return feed.RawItem{GUID: guid, Title: title, PubDateText: pubDate}
}

func TestArticles_TTL(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	vendor := domain.Vendor{ID: "v1", Name: "Vendor One", FeedURL: "http://feeds/v1"}
	fetcher.items[vendor.FeedURL] = []feed.RawItem{rawItem("a", "Advisory A", "Thu, 30 Apr 2026 10:00:00 +0000")}

	c := New(fetcher, Config{TTL: 30 * time.Minute, Now: clock.Now}, testLogger())

	first, hit, err := c.Articles(context.Background(), vendor, false)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first, 1)
	assert.Equal(t, 1, fetcher.callCount(vendor.FeedURL))

	// second read within the TTL: identical set, no refetch
	second, hit, err := c.Articles(context.Background(), vendor, false)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.callCount(vendor.FeedURL))

	// after the TTL expires: exactly one refetch
	clock.Advance(31 * time.Minute)
	_, hit, err = c.Articles(context.Background(), vendor, false)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fetcher.callCount(vendor.FeedURL))
}

func TestArticles_ForceRefresh(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Now()}

	vendor := domain.Vendor{ID: "v1", Name: "Vendor One", FeedURL: "http://feeds/v1"}

	c := New(fetcher, Config{TTL: 30 * time.Minute, Now: clock.Now}, testLogger())

	_, _, err := c.Articles(context.Background(), vendor, false)
	require.NoError(t, err)

	_, hit, err := c.Articles(context.Background(), vendor, true)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fetcher.callCount(vendor.FeedURL))
}

func TestArticles_IndependentSlotsPerVendor(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Now()}

	// two vendors sharing one URL still get their own slots
	sharedURL := "http://feeds/shared"
	v1 := domain.Vendor{ID: "v1", Name: "One", FeedURL: sharedURL}
	v2 := domain.Vendor{ID: "v2", Name: "Two", FeedURL: sharedURL}
	fetcher.items[sharedURL] = []feed.RawItem{rawItem("a", "A", "")}

	c := New(fetcher, Config{TTL: time.Hour, Now: clock.Now}, testLogger())

	got1, _, err := c.Articles(context.Background(), v1, false)
	require.NoError(t, err)
	got2, _, err := c.Articles(context.Background(), v2, false)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.callCount(sharedURL))
	assert.Equal(t, "v1", got1[0].VendorID)
	assert.Equal(t, "v2", got2[0].VendorID)
}

func TestArticles_FailureLeavesOtherEntriesIntact(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Now()}

	good := domain.Vendor{ID: "v1", Name: "Good", FeedURL: "http://feeds/good"}
	bad := domain.Vendor{ID: "v2", Name: "Bad", FeedURL: "http://feeds/bad"}
	fetcher.items[good.FeedURL] = []feed.RawItem{rawItem("a", "A", "")}
	fetcher.errs[bad.FeedURL] = &domain.FetchError{URL: bad.FeedURL, Err: errors.New("timeout")}

	c := New(fetcher, Config{TTL: time.Hour, Now: clock.Now}, testLogger())

	_, _, err := c.Articles(context.Background(), good, false)
	require.NoError(t, err)

	_, _, err = c.Articles(context.Background(), bad, false)
	require.Error(t, err)

	// good vendor still served from cache
	_, hit, err := c.Articles(context.Background(), good, false)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestAggregate(t *testing.T) {
	fetcher := newFakeFetcher()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	v1 := domain.Vendor{ID: "v1", Name: "One", FeedURL: "http://feeds/v1"}
	v2 := domain.Vendor{ID: "v2", Name: "Two", FeedURL: "http://feeds/v2"}
	feedless := domain.Vendor{ID: "v3", Name: "Feedless"}
	broken := domain.Vendor{ID: "v4", Name: "Broken", FeedURL: "http://feeds/v4"}

	fetcher.items[v1.FeedURL] = []feed.RawItem{
		rawItem("a", "Oldest", "Mon, 27 Apr 2026 10:00:00 +0000"),
		rawItem("b", "Newest", "Thu, 30 Apr 2026 10:00:00 +0000"),
	}
	fetcher.items[v2.FeedURL] = []feed.RawItem{
		rawItem("c", "Middle", "Tue, 28 Apr 2026 10:00:00 +0000"),
	}
	fetcher.errs[broken.FeedURL] = errors.New("boom")

	c := New(fetcher, Config{TTL: time.Hour, Now: clock.Now}, testLogger())

	combined, fromCache, errs := c.Aggregate(context.Background(), []domain.Vendor{v1, v2, feedless, broken}, false, 0)

	require.Len(t, errs, 1)
	assert.Equal(t, "v4", errs[0].VendorID)
	assert.False(t, fromCache)

	require.Len(t, combined, 3)
	assert.Equal(t, "b", combined[0].ID)
	assert.Equal(t, "c", combined[1].ID)
	assert.Equal(t, "a", combined[2].ID)

	// feedless vendor was skipped without a fetch
	assert.Equal(t, 0, fetcher.callCount(""))

	// capped read, now served from cache
	capped, fromCache, errs := c.Aggregate(context.Background(), []domain.Vendor{v1, v2}, false, 2)
	require.Len(t, errs, 0)
	assert.True(t, fromCache)
	require.Len(t, capped, 2)
	assert.Equal(t, "b", capped[0].ID)
}
