package models

import "errors"

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// Options controls a single import run.
type Options struct {
	SendEmails   bool `json:"send_emails" yaml:"send_emails"`
	SetVerified  bool `json:"set_verified" yaml:"set_verified"`
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`
	// BatchSize of 0 processes every remaining record in one call.
	BatchSize   int `json:"batch_size" yaml:"batch_size"`
	BatchOffset int `json:"batch_offset" yaml:"batch_offset"`
	// AfterID switches paging to keyset mode when greater than zero.
	AfterID    int64 `json:"after_id,omitempty" yaml:"after_id,omitempty"`
	CopyPhotos bool  `json:"copy_photos" yaml:"copy_photos"`
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		SendEmails:   false,
		SetVerified:  true,
		SkipExisting: true,
		BatchSize:    50,
		BatchOffset:  0,
		CopyPhotos:   true,
	}
}

// Page returns the page of source records selected by the options.
func (o Options) Page() Page {
	return Page{Limit: o.BatchSize, Offset: o.BatchOffset, AfterID: o.AfterID}
}

// Page selects a window of source records ordered by ID ascending.
type Page struct {
	Limit   int
	Offset  int
	AfterID int64
}

// Unbounded reports whether the page has no limit.
func (p Page) Unbounded() bool {
	return p.Limit <= 0
}

// Keyset reports whether the page uses cursor paging.
func (p Page) Keyset() bool {
	return p.AfterID > 0
}
