// Package merge combines a freshly fetched batch of articles with the
// persisted corpus, suppressing duplicates across three identity keys.
package merge

import (
	"sort"
	"strings"

	"feedsync/internal/domain"
)

// DefaultRetentionCap bounds the corpus after a merge.
const DefaultRetentionCap = 1000

// Stats reports what a merge did, for refresh summaries and logs.
type Stats struct {
	NewArticles        int
	DuplicatesFiltered int
}

// indices holds the three duplicate-detection keys over the existing corpus.
// An incoming article colliding on any one of them is dropped: advisories
// get re-published with a fresh GUID but the same title, or the same URL
// with a reworded title, so requiring all keys to agree would
// under-deduplicate.
type indices struct {
	byID       map[string]struct{}
	byURL      map[string]struct{}
	byTitleKey map[string]struct{}
}

func buildIndices(articles []domain.Article) indices {
	idx := indices{
		byID:       make(map[string]struct{}, len(articles)),
		byURL:      make(map[string]struct{}, len(articles)),
		byTitleKey: make(map[string]struct{}, len(articles)),
	}
	for _, a := range articles {
		idx.byID[a.ID] = struct{}{}
		if a.SourceURL != "" {
			idx.byURL[a.SourceURL] = struct{}{}
		}
		idx.byTitleKey[titleKey(a)] = struct{}{}
	}
	return idx
}

func (idx indices) isDuplicate(a domain.Article) bool {
	if _, ok := idx.byID[a.ID]; ok {
		return true
	}
	if a.SourceURL != "" {
		if _, ok := idx.byURL[a.SourceURL]; ok {
			return true
		}
	}
	_, ok := idx.byTitleKey[titleKey(a)]
	return ok
}

func titleKey(a domain.Article) string {
	return a.VendorID + "\x00" + strings.ToLower(a.Title)
}

// Merge appends the non-duplicate part of batch onto existing, sorts the
// result by publication time descending and truncates it to limit (most
// recent kept). It is pure and deterministic: the sort is stable, so equal
// timestamps keep their relative order. limit <= 0 means DefaultRetentionCap.
func Merge(existing, batch []domain.Article, limit int) ([]domain.Article, Stats) {
	if limit <= 0 {
		limit = DefaultRetentionCap
	}

	idx := buildIndices(existing)

	var stats Stats
	merged := make([]domain.Article, 0, len(existing)+len(batch))
	merged = append(merged, existing...)

	for _, a := range batch {
		if idx.isDuplicate(a) {
			stats.DuplicatesFiltered++
			continue
		}
		merged = append(merged, a)
		stats.NewArticles++
		// survivors also guard against duplicates within the batch itself
		idx.byID[a.ID] = struct{}{}
		if a.SourceURL != "" {
			idx.byURL[a.SourceURL] = struct{}{}
		}
		idx.byTitleKey[titleKey(a)] = struct{}{}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}

	return merged, stats
}
