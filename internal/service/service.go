package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"feedsync/internal/config"
	"feedsync/internal/domain"
	"feedsync/internal/merge"
)

// Service orchestrates refresh cycles and serves the read and health paths.
type Service struct {
	vendors    VendorStore
	cache      ArticleCache
	corpus     CorpusStore
	checker    FeedChecker
	publisher  Publisher // optional
	translator Translator
	logger     *slog.Logger
	config     config.IngestConfig

	// one refresh cycle at a time; load→merge→save is a single
	// logical transaction
	refreshMu sync.Mutex
}

func NewService(
	vendors VendorStore,
	cache ArticleCache,
	corpus CorpusStore,
	checker FeedChecker,
	publisher Publisher,
	translator Translator,
	logger *slog.Logger,
	cfg config.IngestConfig,
) *Service {
	return &Service{
		vendors:    vendors,
		cache:      cache,
		corpus:     corpus,
		checker:    checker,
		publisher:  publisher,
		translator: translator,
		logger:     logger.With("component", "service"),
		config:     cfg,
	}
}

// Refresh runs one fetch→normalize→merge→persist cycle. An empty vendorID
// targets every vendor with a feed; otherwise only the named vendor, and
// domain.ErrNotFound is returned before any fetching when it is unknown or
// feedless. Per-vendor fetch failures end up in the stats, never abort the
// cycle. A persistence failure aborts the cycle and leaves the previous
// corpus authoritative.
func (s *Service) Refresh(ctx context.Context, vendorID string, force bool) (*domain.RefreshStats, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	startTime := time.Now()

	targets, err := s.resolveTargets(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("starting refresh",
		"vendors", len(targets),
		"force", force,
	)

	batch, vendorErrs := s.fetchAll(ctx, targets, force)

	stats := &domain.RefreshStats{
		VendorsProcessed: len(targets) - len(vendorErrs),
		VendorErrors:     vendorErrs,
	}

	existing, err := s.corpus.Load(ctx)
	if err != nil {
		// a broken or unreadable corpus degrades to an empty starting
		// point rather than blocking ingestion
		s.logger.Warn("corpus load failed, starting empty", "error", err)
		existing = nil
	}

	batch = s.translateAll(ctx, batch)

	merged, mergeStats := merge.Merge(existing, batch, s.config.RetentionCap)
	stats.NewArticles = mergeStats.NewArticles
	stats.DuplicatesFiltered = mergeStats.DuplicatesFiltered
	stats.CorpusSize = len(merged)

	if err := s.corpus.Save(ctx, merged); err != nil {
		s.logger.Error("corpus save failed", "error", err)
		return nil, fmt.Errorf("persist corpus: %w", err)
	}

	s.publishNew(ctx, existing, merged, stats)

	stats.Duration = time.Since(startTime)

	s.logger.Info("refresh completed",
		"corpus_size", stats.CorpusSize,
		"new", stats.NewArticles,
		"duplicates", stats.DuplicatesFiltered,
		"vendors_processed", stats.VendorsProcessed,
		"vendor_errors", len(stats.VendorErrors),
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// Articles serves the low-latency read path through the cache, without
// touching the corpus. The bool reports whether any result came from cache.
func (s *Service) Articles(ctx context.Context, vendorID string, limit int, force bool) ([]domain.Article, bool, error) {
	var targets []domain.Vendor

	if vendorID != "" {
		vendor, err := s.vendors.GetByID(ctx, vendorID)
		if err != nil {
			return nil, false, err
		}
		targets = []domain.Vendor{*vendor}
	} else {
		all, err := s.vendors.List(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("list vendors: %w", err)
		}
		targets = all
	}

	articles, fromCache, vendorErrs := s.cache.Aggregate(ctx, targets, force, limit)
	for _, ve := range vendorErrs {
		s.logger.Warn("vendor read failed", "vendor", ve.VendorID, "error", ve.Error)
	}

	return articles, fromCache, nil
}

// CheckFeed runs the read-only diagnostic against a vendor's feed or a raw
// URL. Anything containing a scheme separator is treated as a URL; anything
// else is resolved through the vendor catalog.
func (s *Service) CheckFeed(ctx context.Context, target string) (domain.FeedHealth, error) {
	if strings.Contains(target, "://") {
		return s.checker.Check(ctx, target), nil
	}

	vendor, err := s.vendors.GetByID(ctx, target)
	if err != nil {
		return domain.FeedHealth{}, err
	}
	if !vendor.HasFeed() {
		return domain.FeedHealth{}, fmt.Errorf("%w: vendor %q has no feed", domain.ErrNotFound, target)
	}

	return s.checker.Check(ctx, vendor.FeedURL), nil
}

func (s *Service) resolveTargets(ctx context.Context, vendorID string) ([]domain.Vendor, error) {
	if vendorID != "" {
		vendor, err := s.vendors.GetByID(ctx, vendorID)
		if err != nil {
			return nil, err
		}
		if !vendor.HasFeed() {
			return nil, fmt.Errorf("%w: vendor %q has no feed", domain.ErrNotFound, vendorID)
		}
		return []domain.Vendor{*vendor}, nil
	}

	all, err := s.vendors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}

	targets := make([]domain.Vendor, 0, len(all))
	for _, v := range all {
		if v.HasFeed() {
			targets = append(targets, v)
		}
	}
	return targets, nil
}

// fetchAll pulls every target's feed through the cache with bounded
// parallelism. Results come back in target order so merges stay
// deterministic regardless of worker scheduling.
func (s *Service) fetchAll(ctx context.Context, targets []domain.Vendor, force bool) ([]domain.Article, []domain.VendorError) {
	workers := s.config.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([][]domain.Article, len(targets))
	errs := make([]error, len(targets))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, vendor := range targets {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, vendor domain.Vendor) {
			defer wg.Done()
			defer func() { <-sem }()

			articles, _, err := s.cache.Articles(ctx, vendor, force)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = articles
		}(i, vendor)
	}

	wg.Wait()

	var batch []domain.Article
	var vendorErrs []domain.VendorError

	for i, vendor := range targets {
		if errs[i] != nil {
			s.logger.Warn("vendor fetch failed", "vendor", vendor.ID, "error", errs[i])
			vendorErrs = append(vendorErrs, domain.VendorError{
				VendorID:   vendor.ID,
				VendorName: vendor.Name,
				Error:      errs[i].Error(),
			})
			continue
		}
		batch = append(batch, results[i]...)
	}

	return batch, vendorErrs
}

func (s *Service) translateAll(ctx context.Context, batch []domain.Article) []domain.Article {
	if s.translator == nil {
		return batch
	}
	for i, article := range batch {
		translated, err := s.translator.Translate(ctx, article)
		if err != nil {
			s.logger.Warn("translation failed, keeping original", "id", article.ID, "error", err)
			continue
		}
		batch[i] = translated
	}
	return batch
}

// publishNew emits a create event for every article that entered the corpus
// this cycle. Publish failures are logged, not fatal.
func (s *Service) publishNew(ctx context.Context, existing, merged []domain.Article, stats *domain.RefreshStats) {
	if s.publisher == nil {
		return
	}

	known := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		known[a.ID] = struct{}{}
	}

	for i := range merged {
		if _, ok := known[merged[i].ID]; ok {
			continue
		}
		if err := s.publisher.Publish(ctx, &merged[i], true); err != nil {
			s.logger.Warn("publish failed", "id", merged[i].ID, "error", err)
			continue
		}
		stats.Published++
	}
}
