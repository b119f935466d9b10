package domain

import "time"

// VendorError records a single vendor's fetch/parse failure during a refresh.
type VendorError struct {
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
	Error      string `json:"error"`
}

// RefreshStats summarizes one completed refresh cycle.
type RefreshStats struct {
	CorpusSize         int           `json:"corpus_size"`
	NewArticles        int           `json:"new_articles"`
	DuplicatesFiltered int           `json:"duplicates_filtered"`
	VendorsProcessed   int           `json:"vendors_processed"`
	VendorErrors       []VendorError `json:"vendor_errors,omitempty"`
	Published          int           `json:"published"`
	Duration           time.Duration `json:"duration"`
}
