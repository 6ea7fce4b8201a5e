package models

import (
	"time"
)

// MigrationState represents the state of a migration for checkpointing
type MigrationState struct {
	// Metadata
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ConfigHash string    `json:"config_hash"`
	Plugin     string    `json:"plugin"`
	Phase      string    `json:"phase"`

	// Cursor
	NextOffset int   `json:"next_offset"`
	LastID     int64 `json:"last_id"`
	Complete   bool  `json:"complete"`

	// Cumulative counters
	Total          int `json:"total"`
	Imported       int `json:"imported"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
	PhotosMigrated int `json:"photos_migrated"`

	// First errors seen across all pages
	Errors []string `json:"errors,omitempty"`
}

// MaxCheckpointErrors bounds the errors kept in a checkpoint file.
const MaxCheckpointErrors = 100

// NewMigrationState creates a new migration state
func NewMigrationState(runID, configHash, plugin, phase string) *MigrationState {
	now := time.Now().UTC()
	return &MigrationState{
		RunID:      runID,
		StartedAt:  now,
		UpdatedAt:  now,
		ConfigHash: configHash,
		Plugin:     plugin,
		Phase:      phase,
	}
}

// Record folds a finished user page into the state.
func (s *MigrationState) Record(page *MigrationResult) {
	s.RecordBatch(page.BatchStatus, page.Imported)
	s.PhotosMigrated += page.PhotosMigrated
	if page.LastID > s.LastID {
		s.LastID = page.LastID
	}
}

// RecordBatch folds any finished page into the state. migrated counts the
// records written.
func (s *MigrationState) RecordBatch(status BatchStatus, migrated int) {
	s.UpdatedAt = time.Now().UTC()
	s.Total += status.Total
	s.Imported += migrated
	s.Skipped += status.Skipped
	s.Failed += len(status.Errors)
	s.NextOffset = status.NextOffset
	s.Complete = status.BatchComplete
	for _, e := range status.Errors {
		if len(s.Errors) >= MaxCheckpointErrors {
			break
		}
		s.Errors = append(s.Errors, e)
	}
}

// StartPhase moves the state to phase with a fresh cursor. Counters carry over.
func (s *MigrationState) StartPhase(phase string) {
	s.Phase = phase
	s.NextOffset = 0
	s.LastID = 0
	s.Complete = false
	s.UpdatedAt = time.Now().UTC()
}

// Matches reports whether the state belongs to the same plugin and phase.
func (s *MigrationState) Matches(plugin, phase string) bool {
	return s.Plugin == plugin && s.Phase == phase
}

// Processed returns how many users the state has accounted for.
func (s *MigrationState) Processed() int {
	return s.Imported + s.Skipped + s.Failed
}

// Progress returns the progress percentage against the given total
func (s *MigrationState) Progress(total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(s.Processed()) / float64(total) * 100
}
