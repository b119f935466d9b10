package feed

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"feedsync/internal/domain"
)

// DefaultSummaryLength bounds cleaned summaries in runes.
const DefaultSummaryLength = 300

const truncationMarker = "..."

var (
	reTag = regexp.MustCompile(`<[^>]*>`)
	reImg = regexp.MustCompile(`(?is)<img[^>]+src=["']([^"']+)["']`)
	reWS  = regexp.MustCompile(`\s+`)
)

// dateLayouts covers the formats advisory feeds publish in practice.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 02 Jan 06 15:04:05 -0700",
	"Mon, 02 Jan 06 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts one raw feed item into a canonical Article. It is a
// pure function: no I/O, no error return. Missing or malformed fields fall
// back per field, with `now` as the timestamp of last resort.
func Normalize(raw RawItem, vendorID, vendorName string, now time.Time, summaryLen int) domain.Article {
	if summaryLen <= 0 {
		summaryLen = DefaultSummaryLength
	}

	summarySource := raw.Description
	if summarySource == "" {
		summarySource = raw.Content
	}

	now = now.UTC()

	return domain.Article{
		ID:          deriveID(raw, vendorID),
		Title:       CleanText(raw.Title, summaryLen),
		Summary:     CleanText(summarySource, summaryLen),
		Content:     raw.Content,
		PublishedAt: resolveDate(raw, now),
		SourceURL:   raw.Link,
		VendorID:    vendorID,
		VendorName:  vendorName,
		Image:       resolveImage(raw),
		Tags:        append([]string(nil), raw.Categories...),
		Author:      raw.Author,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// deriveID picks a stable identity: guid, then link, then a content hash.
// The hash covers vendor, title and the raw date text, so re-fetching an
// unchanged feed never mints a new ID for the same logical article.
func deriveID(raw RawItem, vendorID string) string {
	if raw.GUID != "" {
		return raw.GUID
	}
	if raw.Link != "" {
		return raw.Link
	}
	sum := sha1.Sum([]byte(vendorID + raw.Title + raw.PubDateText))
	return hex.EncodeToString(sum[:])
}

// CleanText strips markup, decodes common entities, collapses whitespace
// and truncates to maxLen runes, appending a marker only when something
// was actually cut.
func CleanText(s string, maxLen int) string {
	s = reTag.ReplaceAllString(s, " ")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	s = replacer.Replace(s)

	s = strings.TrimSpace(reWS.ReplaceAllString(s, " "))

	runes := []rune(s)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen]) + truncationMarker
	}
	return s
}

// resolveImage picks an image URL: media:content, then media:thumbnail,
// then the first <img src> inside the HTML content. Placeholders are a
// display-layer concern; absence stays absent here.
func resolveImage(raw RawItem) string {
	if raw.MediaURL != "" {
		return raw.MediaURL
	}
	if raw.ThumbnailURL != "" {
		return raw.ThumbnailURL
	}
	if m := reImg.FindStringSubmatch(raw.Content); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	if m := reImg.FindStringSubmatch(raw.Description); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// resolveDate tries pubDate, then dc:date, then the Atom updated field.
// The first value that parses wins; nothing parseable falls back to now.
func resolveDate(raw RawItem, now time.Time) time.Time {
	for _, candidate := range []string{raw.PubDateText, raw.DCDateText, raw.UpdatedText} {
		if t, ok := parseDate(candidate); ok {
			return t
		}
	}
	return now
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
