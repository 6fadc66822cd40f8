package database

import (
	"fmt"

	"loopimmo/server/internal/models"
)

func (d *Database) RunMigrations() error {
	err := d.db.AutoMigrate(
		&models.Property{},
		&models.Photo{},
		&models.Lead{},
		&models.Commission{},
		&models.Contract{},
		&models.Signatory{},
		&models.Visit{},
		&models.AmbassadorApplication{},
		&models.ActivityEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Listings are searched by location and price together
	if !d.db.Migrator().HasIndex(&models.Property{}, "idx_properties_search") {
		err = d.db.Exec(`
			CREATE INDEX idx_properties_search
			ON properties(status, city, price);
		`).Error
		if err != nil {
			return fmt.Errorf("failed to create search index: %w", err)
		}
	}

	return nil
}
