package models

import "fmt"

// FieldValue is one raw legacy value keyed by its source field.
type FieldValue struct {
	Source string
	Value  string
}

// DiscoveredField is a legacy field that the default mapping does not cover.
type DiscoveredField struct {
	FieldKey   string   `json:"field_key"`
	FieldType  string   `json:"field_type"`
	FieldLabel string   `json:"field_label"`
	Samples    []string `json:"samples"`
}

// MaxSamples bounds DiscoveredField.Samples.
const MaxSamples = 3

// Suggestion is a ranked candidate target for a legacy field.
type Suggestion struct {
	Target     string `json:"target"`
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

// BatchStatus is the common shape of every batch result.
type BatchStatus struct {
	Total         int      `json:"total"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
	BatchComplete bool     `json:"batch_complete"`
	NextOffset    int      `json:"next_offset"`
}

// AddError records a per-record failure.
func (s *BatchStatus) AddError(format string, args ...interface{}) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Advance records that count records of page were processed. A short or
// unbounded page completes the batch. Offsets are ignored in keyset and
// unbounded modes, so next_offset then counts from zero.
func (s *BatchStatus) Advance(page Page, count int) {
	s.Total = count
	s.BatchComplete = page.Unbounded() || count < page.Limit
	s.NextOffset = page.Offset + count
	if page.Keyset() || page.Unbounded() {
		s.NextOffset = count
	}
}

// Failed returns the number of records that errored.
func (s *BatchStatus) Failed() int {
	return len(s.Errors)
}

// MigrationResult is the outcome of one user-import batch.
type MigrationResult struct {
	BatchStatus
	Imported       int      `json:"imported"`
	PhotosMigrated int      `json:"photos_migrated"`
	FieldsMapped   int      `json:"fields_mapped"`
	FieldsUnmapped []string `json:"fields_unmapped"`
	LastID         int64    `json:"last_id"`
}

// NewMigrationResult returns an empty result with non-nil slices so that
// JSON output always carries arrays.
func NewMigrationResult() *MigrationResult {
	return &MigrationResult{
		BatchStatus:    BatchStatus{Errors: []string{}},
		FieldsUnmapped: []string{},
	}
}

// PreconditionFailed returns the result reported when a run cannot start.
func PreconditionFailed(err error) *MigrationResult {
	r := NewMigrationResult()
	r.Errors = append(r.Errors, err.Error())
	r.BatchComplete = true
	return r
}

// AddUnmapped appends field names not yet recorded, keeping first-seen order.
func (r *MigrationResult) AddUnmapped(fields ...string) {
	for _, f := range fields {
		found := false
		for _, existing := range r.FieldsUnmapped {
			if existing == f {
				found = true
				break
			}
		}
		if !found {
			r.FieldsUnmapped = append(r.FieldsUnmapped, f)
		}
	}
}

// Merge folds a later page into r. Counters add up; the cursor moves on.
func (r *MigrationResult) Merge(page *MigrationResult) {
	r.Total += page.Total
	r.Imported += page.Imported
	r.Skipped += page.Skipped
	r.Errors = append(r.Errors, page.Errors...)
	r.PhotosMigrated += page.PhotosMigrated
	r.FieldsMapped += page.FieldsMapped
	r.AddUnmapped(page.FieldsUnmapped...)
	r.BatchComplete = page.BatchComplete
	r.NextOffset = page.NextOffset
	if page.LastID > r.LastID {
		r.LastID = page.LastID
	}
}

// RestrictionResult is the outcome of a content restriction batch.
type RestrictionResult struct {
	BatchStatus
	Migrated int `json:"migrated"`
	// Rejected counts redirects downgraded to a message because they pointed off-site.
	Rejected int `json:"rejected_redirects"`
}

// NewRestrictionResult returns an empty result.
func NewRestrictionResult() *RestrictionResult {
	return &RestrictionResult{BatchStatus: BatchStatus{Errors: []string{}}}
}

// RoleResult is the outcome of a role migration batch.
type RoleResult struct {
	BatchStatus
	Migrated int `json:"migrated"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
}

// NewRoleResult returns an empty result.
func NewRoleResult() *RoleResult {
	return &RoleResult{BatchStatus: BatchStatus{Errors: []string{}}}
}

// ImportOutcome is what an adapter reports for a single user.
type ImportOutcome struct {
	Skipped        bool
	SkipReason     string
	FieldsMapped   int
	FieldsUnmapped []string
	PhotosMigrated int
}

// PreviewRow describes what an import would do to one user without writing.
type PreviewRow struct {
	UserID         int64                  `json:"user_id"`
	Login          string                 `json:"login"`
	Profile        map[string]interface{} `json:"profile"`
	Account        map[string]interface{} `json:"account"`
	FieldsUnmapped []string               `json:"fields_unmapped"`
	Photos         map[string]string      `json:"photos,omitempty"`
}
