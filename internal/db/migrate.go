package db

import (
	"fmt"

	"github.com/zulandar/isotrack/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Isometric{},
		&models.Revision{},
		&models.Spool{},
		&models.Joint{},
		&models.Material{},
		&models.Impact{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
