package models

import (
	"time"
)

// MigrationReport represents the complete report of a migration run
type MigrationReport struct {
	// Metadata
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`
	DryRun    bool      `json:"dry_run"`

	// Source
	Source SourceReport `json:"source"`

	// Options used
	Options Options `json:"options"`

	// Results per phase
	Users        *MigrationResult   `json:"users,omitempty"`
	Restrictions *RestrictionResult `json:"restrictions,omitempty"`
	Roles        *RoleResult        `json:"roles,omitempty"`

	// Dry-run preview
	Preview []PreviewRow `json:"preview,omitempty"`

	// Mapping diagnostics
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// SourceReport represents source information
type SourceReport struct {
	Plugin      string `json:"plugin"`
	PluginName  string `json:"plugin_name"`
	Active      bool   `json:"active"`
	Driver      string `json:"driver"`
	TablePrefix string `json:"table_prefix"`
	UserCount   int64  `json:"user_count"`
}

// ValidationIssue represents a mapping problem found before a run
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewMigrationReport starts a report for the given run
func NewMigrationReport(runID string, dryRun bool) *MigrationReport {
	return &MigrationReport{
		RunID:     runID,
		StartTime: time.Now().UTC(),
		DryRun:    dryRun,
	}
}

// Finish stamps the end time and duration
func (r *MigrationReport) Finish() {
	r.EndTime = time.Now().UTC()
	r.Duration = r.EndTime.Sub(r.StartTime).Round(time.Millisecond).String()
}
