// Package store owns the target plugin's tables.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = models.ErrNotFound

// Open connects to a database. Models are mapped to singular tables under
// tablePrefix; raw table names passed to db.Table are used as given, so the
// same handle can also read legacy tables.
func Open(driver, dsn, tablePrefix string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   tablePrefix,
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// one connection keeps in-memory databases shared and avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// AutoMigrate creates or updates the target tables.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	start := time.Now()
	if err := db.WithContext(ctx).AutoMigrate(
		&UserProfile{},
		&UserData{},
		&ContentRestriction{},
		&CustomRole{},
		&MappingPreset{},
	); err != nil {
		return fmt.Errorf("failed to migrate target schema: %w", err)
	}
	slog.Debug("Target schema ready", "duration", time.Since(start))
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
