package database

import (
	"context"

	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

const defaultActivityLimit = 100

// InsertEvents appends a batch of activity events inside the given transaction.
func InsertEvents(tx *gorm.DB, events []*models.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	return tx.CreateInBatches(events, 100).Error
}

// RecordEvents stores a batch of activity events atomically.
func (d *Database) RecordEvents(ctx context.Context, events []*models.ActivityEvent) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return InsertEvents(tx, events)
	})
	return translate(err)
}

func (d *Database) GetActivity(ctx context.Context, f models.ActivityFilter) ([]models.ActivityEvent, error) {
	q := d.db.WithContext(ctx).Model(&models.ActivityEvent{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var events []models.ActivityEvent
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error
	return events, translate(err)
}
