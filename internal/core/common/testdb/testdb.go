// Package testdb opens in-memory sqlite databases with the full schema for package tests.
package testdb

import (
	"fmt"

	"github.com/frahmantamala/separation-management/internal/core/datamodel/department"
	"github.com/frahmantamala/separation-management/internal/core/datamodel/handover"
	"github.com/frahmantamala/separation-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/separation-management/internal/core/datamodel/separation"
	"github.com/frahmantamala/separation-management/internal/core/datamodel/template"
	"github.com/frahmantamala/separation-management/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every persisted model in migration order.
var Models = []interface{}{
	&department.Department{},
	&user.User{},
	&template.ChecklistTemplate{},
	&template.ChecklistTemplateItem{},
	&separation.Case{},
	&separation.ChecklistItem{},
	&separation.SignOff{},
	&handover.HandoverSchedule{},
	&notification.Notification{},
}

// Open returns a migrated in-memory database. The pool is pinned to one
// connection because every sqlite :memory: connection is its own database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
