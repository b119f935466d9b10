package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"feedsync/internal/domain"
)

// RawItem is the parser's defensive view of one feed entry. It exists only
// for the duration of a fetch cycle; Normalize turns it into a domain.Article.
type RawItem struct {
	Title        string
	Link         string
	GUID         string
	PubDateText  string
	DCDateText   string
	UpdatedText  string
	Description  string
	Content      string
	MediaURL     string
	ThumbnailURL string
	Author       string
	Categories   []string
}

// Config holds fetcher configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves and parses RSS/Atom feeds over HTTP.
type Fetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
	logger     *slog.Logger
}

// New creates a feed fetcher with a bounded request timeout.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "FeedSync/1.0"
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		parser:    gofeed.NewParser(),
		userAgent: cfg.UserAgent,
		logger:    logger.With("component", "fetcher"),
	}
}

// Fetch retrieves the feed at rawURL and returns its items. Network-level
// problems come back as *domain.FetchError, unparseable bodies as
// *domain.ParseError, and non-http(s) schemes as domain.ErrInvalidURL
// before any network call.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]RawItem, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, &domain.ParseError{URL: rawURL, Err: err}
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, fromGofeed(item))
	}

	f.logger.Debug("fetched feed", "url", rawURL, "items", len(items))

	return items, nil
}

// Check performs the same fetch+parse as Fetch but reports a diagnostic
// instead of failing. It mutates nothing and never returns an error.
func (f *Fetcher) Check(ctx context.Context, rawURL string) domain.FeedHealth {
	items, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return domain.FeedHealth{Reachable: false, Error: err.Error()}
	}
	return domain.FeedHealth{Reachable: true, ItemCount: len(items)}
}

// fromGofeed flattens a gofeed item into a RawItem. Every field access is
// guarded; feeds omit or mistype almost anything.
func fromGofeed(item *gofeed.Item) RawItem {
	raw := RawItem{
		Title:       item.Title,
		Link:        item.Link,
		GUID:        item.GUID,
		PubDateText: item.Published,
		UpdatedText: item.Updated,
		Description: item.Description,
		Content:     item.Content,
		Categories:  append([]string(nil), item.Categories...),
	}

	if item.Author != nil {
		raw.Author = item.Author.Name
	}

	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Date) > 0 {
		raw.DCDateText = item.DublinCoreExt.Date[0]
	}

	if media, ok := item.Extensions["media"]; ok {
		raw.MediaURL = firstExtensionURL(media["content"])
		raw.ThumbnailURL = firstExtensionURL(media["thumbnail"])
	}
	if raw.ThumbnailURL == "" && item.Image != nil {
		raw.ThumbnailURL = item.Image.URL
	}

	return raw
}

func firstExtensionURL(exts []ext.Extension) string {
	for _, e := range exts {
		if u := e.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}
