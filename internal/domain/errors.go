package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL marks a feed URL rejected before any network call.
	ErrInvalidURL = errors.New("invalid feed url")
	// ErrNotFound marks a refresh or read scoped to an unknown or feedless vendor.
	ErrNotFound = errors.New("vendor not found")
)

// FetchError wraps a network-level failure for a single feed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps a feed body that did not parse as RSS/Atom.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError wraps a corpus read or write failure.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("corpus %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
