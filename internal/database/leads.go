package database

import (
	"context"

	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

func (d *Database) CreateLead(ctx context.Context, lead *models.Lead) error {
	lead.ID = 0
	lead.Status = models.LeadNew
	if lead.Urgency == "" {
		lead.Urgency = models.UrgencyMedium
	}
	if lead.FinancingStatus == "" {
		lead.FinancingStatus = models.FinancingUnknown
	}
	return translate(d.db.WithContext(ctx).Create(lead).Error)
}

func (d *Database) GetLead(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := d.db.WithContext(ctx).First(&lead, id).Error; err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (d *Database) GetLeads(ctx context.Context, f models.LeadFilter) ([]models.Lead, error) {
	q := d.db.WithContext(ctx).Model(&models.Lead{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AmbassadorID != nil {
		q = q.Where("ambassador_id = ?", *f.AmbassadorID)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}

	var leads []models.Lead
	err := q.Order("created_at DESC, id DESC").Find(&leads).Error
	return leads, translate(err)
}

func (d *Database) UpdateLeadStatus(ctx context.Context, id uint, to models.LeadStatus) (*models.Lead, error) {
	var lead models.Lead
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lead, id).Error; err != nil {
			return err
		}
		if !lead.Status.CanTransition(to) {
			return &TransitionError{Entity: "lead", From: string(lead.Status), To: string(to)}
		}
		lead.Status = to
		return tx.Model(&models.Lead{}).Where("id = ?", id).Update("status", to).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

// CountLeadsByStatus counts leads per status, optionally for one ambassador.
func (d *Database) CountLeadsByStatus(ctx context.Context, ambassadorID *uint) (map[models.LeadStatus]int, error) {
	q := d.db.WithContext(ctx).Model(&models.Lead{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if ambassadorID != nil {
		q = q.Where("ambassador_id = ?", *ambassadorID)
	}

	var rows []struct {
		Status models.LeadStatus
		Count  int
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.LeadStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
