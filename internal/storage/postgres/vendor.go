package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"feedsync/internal/domain"
)

// VendorStore reads the vendor catalog. The catalog is owned by the
// website's CRUD layer; this service never writes to it.
type VendorStore struct {
	db *sqlx.DB
}

func NewVendorStore(db *sqlx.DB) *VendorStore {
	return &VendorStore{db: db}
}

// List returns all vendors, feedless ones included; callers filter.
func (s *VendorStore) List(ctx context.Context) ([]domain.Vendor, error) {
	query := `
		SELECT id, name, COALESCE(feed_url, '') AS feed_url
		FROM vendors
		ORDER BY name`

	var vendors []domain.Vendor
	if err := s.db.SelectContext(ctx, &vendors, query); err != nil {
		return nil, err
	}
	return vendors, nil
}

// GetByID returns one vendor, or domain.ErrNotFound.
func (s *VendorStore) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	query := `
		SELECT id, name, COALESCE(feed_url, '') AS feed_url
		FROM vendors
		WHERE id = $1`

	var vendor domain.Vendor
	err := s.db.GetContext(ctx, &vendor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}
