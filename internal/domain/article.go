package domain

import "time"

// Vendor is a catalog entity owning zero-or-one advisory feed.
// The catalog itself belongs to the website's CRUD layer; this
// service only reads it.
type Vendor struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	FeedURL string `db:"feed_url"`
}

// HasFeed reports whether the vendor participates in ingestion.
func (v Vendor) HasFeed() bool {
	return v.FeedURL != ""
}

// Article is the canonical, deduplicated record derived from one feed item.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	SourceURL   string    `json:"source_url"`
	VendorID    string    `json:"vendor_id"`
	VendorName  string    `json:"vendor_name"`
	Image       string    `json:"image,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FeedHealth is the result of a diagnostic feed check.
type FeedHealth struct {
	Reachable bool   `json:"reachable"`
	ItemCount int    `json:"item_count,omitempty"`
	Error     string `json:"error,omitempty"`
}
