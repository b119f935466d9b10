package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedsync/internal/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
  <title>Vendor Advisories</title>
  <item>
    <title>Advisory A</title>
    <link>http://vendor.example/a</link>
    <guid>adv-a</guid>
    <pubDate>Thu, 30 Apr 2026 10:00:00 +0000</pubDate>
    <description>First advisory</description>
    <category>security</category>
    <media:thumbnail url="http://img/a.png"/>
  </item>
  <item>
    <title>Advisory B</title>
    <link>http://vendor.example/b</link>
    <dc:date>2026-04-29T09:00:00Z</dc:date>
    <description>Second advisory</description>
  </item>
</channel>
</rss>`

// a channel whose single item serializes without any list wrapper
const singleItemRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>One Item</title>
  <item>
    <title>Only Advisory</title>
    <link>http://vendor.example/only</link>
  </item>
</channel>
</rss>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFetch_ParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := New(Config{}, testLogger())

	items, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Advisory A", items[0].Title)
	assert.Equal(t, "adv-a", items[0].GUID)
	assert.Equal(t, "http://vendor.example/a", items[0].Link)
	assert.NotEmpty(t, items[0].PubDateText)
	assert.Equal(t, []string{"security"}, items[0].Categories)
	assert.Equal(t, "http://img/a.png", items[0].ThumbnailURL)

	assert.Equal(t, "Advisory B", items[1].Title)
	assert.Equal(t, "2026-04-29T09:00:00Z", items[1].DCDateText)
}

func TestFetch_SingleItemChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(singleItemRSS))
	}))
	defer srv.Close()

	f := New(Config{}, testLogger())

	items, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Only Advisory", items[0].Title)
}

func TestFetch_InvalidScheme_NoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	f := New(Config{}, testLogger())

	for _, url := range []string{"ftp://feeds.example/rss", "file:///etc/passwd", "feeds.example/rss"} {
		_, err := f.Fetch(context.Background(), url)
		assert.ErrorIs(t, err, domain.ErrInvalidURL, url)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(Config{}, testLogger())

	_, err := f.Fetch(context.Background(), srv.URL)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetch_MalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("this is not xml at all"))
	}))
	defer srv.Close()

	f := New(Config{}, testLogger())

	_, err := f.Fetch(context.Background(), srv.URL)

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := New(Config{}, testLogger())

	health := f.Check(context.Background(), srv.URL)
	assert.True(t, health.Reachable)
	assert.Equal(t, 2, health.ItemCount)
	assert.Empty(t, health.Error)

	srv.Close()
	health = f.Check(context.Background(), srv.URL)
	assert.False(t, health.Reachable)
	assert.NotEmpty(t, health.Error)
}
