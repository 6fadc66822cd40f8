package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

func (d *Database) CreateCommission(ctx context.Context, c *models.Commission) error {
	c.ID = 0
	c.Status = models.CommissionPending
	c.ValidatedAt = nil
	c.PaidAt = nil
	return translate(d.db.WithContext(ctx).Create(c).Error)
}

func (d *Database) GetCommission(ctx context.Context, id uint) (*models.Commission, error) {
	var c models.Commission
	if err := d.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (d *Database) GetCommissions(ctx context.Context, f models.CommissionFilter) ([]models.Commission, error) {
	q := d.db.WithContext(ctx).Model(&models.Commission{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AmbassadorID != nil {
		q = q.Where("ambassador_id = ?", *f.AmbassadorID)
	}

	var commissions []models.Commission
	err := q.Order("created_at DESC, id DESC").Find(&commissions).Error
	return commissions, translate(err)
}

func (d *Database) UpdateCommissionStatus(ctx context.Context, id uint, to models.CommissionStatus) (*models.Commission, error) {
	var c models.Commission
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		if !c.Status.CanTransition(to) {
			return &TransitionError{Entity: "commission", From: string(c.Status), To: string(to)}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"status": to}
		switch to {
		case models.CommissionValidated:
			updates["validated_at"] = now
			c.ValidatedAt = &now
		case models.CommissionPaid:
			updates["paid_at"] = now
			c.PaidAt = &now
		}
		c.Status = to
		return tx.Model(&models.Commission{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
