package ultimatemember

import (
	"time"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
)

// Ultimate Member account statuses
const (
	StatusApproved                  = "approved"
	StatusRejected                  = "rejected"
	StatusInactive                  = "inactive"
	StatusAwaitingAdminReview       = "awaiting_admin_review"
	StatusAwaitingEmailConfirmation = "awaiting_email_confirmation"
)

// ApplyStatus adds the account side effects of a UM status to account.
// Dates already recorded in existing are left alone.
func ApplyStatus(account map[string]interface{}, status string, opts models.Options, existing *store.UserData, now time.Time) {
	switch status {
	case StatusApproved:
		if opts.SetVerified {
			account["is_verified"] = true
			if existing == nil || existing.VerifiedDate == nil {
				account["verified_date"] = now
			}
		}
		account["is_approved"] = true
		if existing == nil || existing.ApprovedDate == nil {
			account["approved_date"] = now
		}
	case StatusRejected:
		account["is_disabled"] = true
		account["disabled_reason"] = StatusRejected
		account["is_verified"] = false
	case StatusInactive:
		account["is_disabled"] = true
		account["disabled_reason"] = StatusInactive
	case StatusAwaitingAdminReview:
		account["requires_approval"] = true
	case StatusAwaitingEmailConfirmation:
		account["is_verified"] = false
	}
}
