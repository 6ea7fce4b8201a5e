package store

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Rollback targets
const (
	TableProfile      = "profile"
	TableUserData     = "user_data"
	TableRestrictions = "restrictions"
	TableRoles        = "roles"
)

var rollbackModels = map[string]interface{}{
	TableProfile:      &UserProfile{},
	TableUserData:     &UserData{},
	TableRestrictions: &ContentRestriction{},
	TableRoles:        &CustomRole{},
}

// RollbackTables returns the names Rollback accepts.
func RollbackTables() []string {
	names := make([]string, 0, len(rollbackModels))
	for name := range rollbackModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rollback deletes every row of one target table. There is no per-row undo.
func Rollback(ctx context.Context, db *gorm.DB, table string) (int64, error) {
	model, ok := rollbackModels[table]
	if !ok {
		return 0, fmt.Errorf("unknown rollback table %q (expected one of %v)", table, RollbackTables())
	}
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to roll back %s: %w", table, res.Error)
	}
	return res.RowsAffected, nil
}
