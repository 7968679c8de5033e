package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes the migrations AutoMigrate cannot express
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Open-Akten lookup for the Mandant delete guard
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_akten_mandant_status
		ON akten(mandanten_id, status)
	`).Error; err != nil {
		return err
	}

	// Task lists per case
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notizen_akte_typ
		ON notizen(akte_id, typ)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notizen_faellig
		ON notizen(faellig_am)
	`).Error; err != nil {
		return err
	}

	return nil
}
