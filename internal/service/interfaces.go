package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"feedsync/internal/domain"
)

type VendorStore interface {
	List(ctx context.Context) ([]domain.Vendor, error)
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
}

// ArticleCache serves per-vendor articles, cached or fresh.
type ArticleCache interface {
	Articles(ctx context.Context, vendor domain.Vendor, force bool) ([]domain.Article, bool, error)
	Aggregate(ctx context.Context, vendors []domain.Vendor, force bool, limit int) ([]domain.Article, bool, []domain.VendorError)
}

// CorpusStore is the durable article corpus.
type CorpusStore interface {
	Load(ctx context.Context) ([]domain.Article, error)
	Save(ctx context.Context, articles []domain.Article) error
}

// FeedChecker runs the read-only feed diagnostic.
type FeedChecker interface {
	Check(ctx context.Context, url string) domain.FeedHealth
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article, isNew bool) error
}

// Translator transforms an article before storage, best effort.
type Translator interface {
	Translate(ctx context.Context, article domain.Article) (domain.Article, error)
}
