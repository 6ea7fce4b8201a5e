package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchStatus_Advance(t *testing.T) {
	tests := []struct {
		name         string
		page         Page
		count        int
		expectedDone bool
		expectedNext int
	}{
		{"full page", Page{Limit: 50}, 50, false, 50},
		{"full later page", Page{Limit: 50, Offset: 50}, 50, false, 100},
		{"short page", Page{Limit: 50, Offset: 100}, 20, true, 120},
		{"empty page", Page{Limit: 50, Offset: 120}, 0, true, 120},
		{"unbounded", Page{Offset: 10}, 7, true, 7},
		{"keyset", Page{Limit: 50, Offset: 99, AfterID: 50}, 50, false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s BatchStatus
			s.Advance(tt.page, tt.count)
			if s.Total != tt.count {
				t.Errorf("Total = %d, expected %d", s.Total, tt.count)
			}
			if s.BatchComplete != tt.expectedDone {
				t.Errorf("BatchComplete = %v, expected %v", s.BatchComplete, tt.expectedDone)
			}
			if s.NextOffset != tt.expectedNext {
				t.Errorf("NextOffset = %d, expected %d", s.NextOffset, tt.expectedNext)
			}
		})
	}
}

func TestMigrationResult_Merge(t *testing.T) {
	total := NewMigrationResult()

	first := NewMigrationResult()
	first.Total, first.Imported, first.Skipped = 50, 48, 1
	first.AddError("User ID %d: %s", 7, "boom")
	first.FieldsUnmapped = []string{"favorite_color"}
	first.LastID, first.NextOffset = 50, 50

	second := NewMigrationResult()
	second.Total, second.Imported, second.PhotosMigrated = 20, 20, 3
	second.FieldsUnmapped = []string{"shoe_size", "favorite_color"}
	second.LastID, second.NextOffset, second.BatchComplete = 120, 70, true

	total.Merge(first)
	total.Merge(second)

	assert.Equal(t, 70, total.Total)
	assert.Equal(t, 68, total.Imported)
	assert.Equal(t, 1, total.Skipped)
	assert.Equal(t, 3, total.PhotosMigrated)
	assert.Equal(t, []string{"User ID 7: boom"}, total.Errors)
	assert.Equal(t, []string{"favorite_color", "shoe_size"}, total.FieldsUnmapped)
	assert.Equal(t, int64(120), total.LastID)
	assert.Equal(t, 70, total.NextOffset)
	assert.True(t, total.BatchComplete)
}

func TestMigrationState_Record(t *testing.T) {
	s := NewMigrationState("run", "hash", "ultimate-member", "users")

	page := NewMigrationResult()
	page.Total, page.Imported, page.PhotosMigrated = 50, 49, 2
	page.AddError("User ID 3: locked")
	page.LastID, page.NextOffset = 50, 50
	s.Record(page)

	assert.Equal(t, 50, s.Total)
	assert.Equal(t, 49, s.Imported)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.PhotosMigrated)
	assert.Equal(t, int64(50), s.LastID)
	assert.Equal(t, 50, s.Processed())
	assert.False(t, s.Complete)
	assert.InDelta(t, 41.67, s.Progress(120), 0.01)

	s.StartPhase("roles")
	assert.Equal(t, "roles", s.Phase)
	assert.Zero(t, s.NextOffset)
	assert.Zero(t, s.LastID)
	assert.Equal(t, 49, s.Imported, "counters carry over between phases")

	s.RecordBatch(BatchStatus{Total: 2, BatchComplete: true, NextOffset: 2}, 2)
	assert.True(t, s.Complete)
	assert.Equal(t, 51, s.Imported)
	assert.True(t, s.Matches("ultimate-member", "roles"))
}

func TestMigrationState_ErrorCap(t *testing.T) {
	s := NewMigrationState("run", "hash", "buddypress", "users")
	status := BatchStatus{}
	for i := 0; i < MaxCheckpointErrors+10; i++ {
		status.AddError("User ID %d: failed", i)
	}
	s.RecordBatch(status, 0)
	assert.Len(t, s.Errors, MaxCheckpointErrors)
	assert.Equal(t, MaxCheckpointErrors+10, s.Failed)
}
