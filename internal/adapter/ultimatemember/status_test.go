package ultimatemember

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
)

func TestApplyStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-24 * time.Hour)
	noVerify := models.DefaultOptions()
	noVerify.SetVerified = false

	tests := []struct {
		name     string
		status   string
		opts     models.Options
		existing *store.UserData
		expected map[string]interface{}
	}{
		{
			name:   "approved",
			status: StatusApproved,
			opts:   models.DefaultOptions(),
			expected: map[string]interface{}{
				"is_verified": true, "verified_date": now,
				"is_approved": true, "approved_date": now,
			},
		},
		{
			name:     "approved keeps existing dates",
			status:   StatusApproved,
			opts:     models.DefaultOptions(),
			existing: &store.UserData{VerifiedDate: &earlier, ApprovedDate: &earlier},
			expected: map[string]interface{}{"is_verified": true, "is_approved": true},
		},
		{
			name:     "approved without set_verified",
			status:   StatusApproved,
			opts:     noVerify,
			expected: map[string]interface{}{"is_approved": true, "approved_date": now},
		},
		{
			name:   "rejected",
			status: StatusRejected,
			opts:   models.DefaultOptions(),
			expected: map[string]interface{}{
				"is_disabled": true, "disabled_reason": "rejected", "is_verified": false,
			},
		},
		{
			name:     "inactive",
			status:   StatusInactive,
			opts:     models.DefaultOptions(),
			expected: map[string]interface{}{"is_disabled": true, "disabled_reason": "inactive"},
		},
		{
			name:     "awaiting admin review",
			status:   StatusAwaitingAdminReview,
			opts:     models.DefaultOptions(),
			expected: map[string]interface{}{"requires_approval": true},
		},
		{
			name:     "awaiting email confirmation",
			status:   StatusAwaitingEmailConfirmation,
			opts:     models.DefaultOptions(),
			expected: map[string]interface{}{"is_verified": false},
		},
		{
			name:     "padded status is not a status",
			status:   " " + StatusApproved + " ",
			opts:     models.DefaultOptions(),
			expected: map[string]interface{}{},
		},
		{
			name:     "unknown",
			status:   "checkmail",
			opts:     models.DefaultOptions(),
			expected: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := map[string]interface{}{}
			ApplyStatus(account, tt.status, tt.opts, tt.existing, now)
			assert.Equal(t, tt.expected, account)
		})
	}
}
