package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite opens a file-backed (or ":memory:") SQLite database through gorm and
// migrates the given models.
func OpenSQLite(path string, models ...any) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("SQLITE_PATH is empty")
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		// SQLite serialises writers; one connection keeps ":memory:" databases shared.
		sqlDB.SetMaxOpenConns(1)
	}
	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return gdb, nil
}
