package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

// CreateApplication stores an onboarding application. One application per email.
func (d *Database) CreateApplication(ctx context.Context, app *models.AmbassadorApplication) error {
	app.ID = 0
	app.Status = models.ApplicationPending
	app.DecidedBy = nil
	app.DecidedAt = nil
	return translate(d.db.WithContext(ctx).Create(app).Error)
}

func (d *Database) GetApplications(ctx context.Context, status models.ApplicationStatus) ([]models.AmbassadorApplication, error) {
	q := d.db.WithContext(ctx).Model(&models.AmbassadorApplication{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var apps []models.AmbassadorApplication
	err := q.Order("created_at ASC, id ASC").Find(&apps).Error
	return apps, translate(err)
}

func (d *Database) CountApplications(ctx context.Context, status models.ApplicationStatus) (int, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.AmbassadorApplication{}).
		Where("status = ?", status).
		Count(&count).Error
	return int(count), translate(err)
}

func (d *Database) DecideApplication(ctx context.Context, id uint, to models.ApplicationStatus, decidedBy uint) (*models.AmbassadorApplication, error) {
	var app models.AmbassadorApplication
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, id).Error; err != nil {
			return err
		}
		if !app.Status.CanTransition(to) {
			return &TransitionError{Entity: "application", From: string(app.Status), To: string(to)}
		}
		now := time.Now().UTC()
		app.Status = to
		app.DecidedBy = &decidedBy
		app.DecidedAt = &now
		return tx.Model(&models.AmbassadorApplication{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": to, "decided_by": decidedBy, "decided_at": now}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &app, nil
}
