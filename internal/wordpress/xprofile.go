package wordpress

import (
	"context"
	"fmt"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

// BuddyPress extended profile tables
const (
	XProfileFieldsTable = "bp_xprofile_fields"
	XProfileDataTable   = "bp_xprofile_data"
)

// XProfileField is a top-level BuddyPress profile field.
type XProfileField struct {
	ID          int64  `gorm:"column:id"`
	GroupID     int64  `gorm:"column:group_id"`
	Type        string `gorm:"column:type"`
	Name        string `gorm:"column:name"`
	Description string `gorm:"column:description"`
}

// Key returns the mapping key of the field.
func (f XProfileField) Key() string {
	return fmt.Sprintf("field_%d", f.ID)
}

// XProfileValue is one stored field value of a user.
type XProfileValue struct {
	FieldID int64  `gorm:"column:field_id"`
	Value   string `gorm:"column:value"`
}

// XProfileFields returns the top-level fields ordered by group then order.
// Option rows (parent_id <> 0) are excluded.
func (s *Source) XProfileFields(ctx context.Context) ([]XProfileField, error) {
	var fields []XProfileField
	err := s.table(ctx, XProfileFieldsTable).
		Select("id, group_id, type, name, COALESCE(description, '') AS description").
		Where("parent_id = ?", 0).
		Order("group_id ASC, field_order ASC, id ASC").
		Scan(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read xprofile fields: %w", err)
	}
	return fields, nil
}

// XProfileData returns the stored values of a user ordered by field id.
func (s *Source) XProfileData(ctx context.Context, userID int64) ([]XProfileValue, error) {
	var values []XProfileValue
	err := s.table(ctx, XProfileDataTable).
		Select("field_id, COALESCE(value, '') AS value").
		Where("user_id = ?", userID).
		Order("field_id ASC").
		Scan(&values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read xprofile data of user %d: %w", userID, err)
	}
	return values, nil
}

// XProfileUserIDs returns one page of distinct user IDs with profile data.
func (s *Source) XProfileUserIDs(ctx context.Context, page models.Page) ([]int64, error) {
	var ids []int64
	if err := paged(s.table(ctx, XProfileDataTable), "user_id", page).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list xprofile users: %w", err)
	}
	return ids, nil
}

// CountXProfileUsers counts distinct users with profile data.
func (s *Source) CountXProfileUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.table(ctx, XProfileDataTable).Distinct("user_id").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count xprofile users: %w", err)
	}
	return count, nil
}

// XProfileSamples returns up to limit distinct non-empty values of a field.
func (s *Source) XProfileSamples(ctx context.Context, fieldID int64, limit int) ([]string, error) {
	var values []string
	err := s.table(ctx, XProfileDataTable).
		Where("field_id = ? AND value IS NOT NULL AND value <> ''", fieldID).
		Distinct("value").
		Order("value ASC").
		Limit(limit).
		Pluck("value", &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sample field %d: %w", fieldID, err)
	}
	return values, nil
}
