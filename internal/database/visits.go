package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

const defaultVisitMinutes = 30

func visitEnd(v *models.Visit) time.Time {
	return v.ScheduledAt.Add(time.Duration(v.DurationMinutes) * time.Minute)
}

// CreateVisit books a visit. Upcoming visits of the same property may not overlap.
func (d *Database) CreateVisit(ctx context.Context, v *models.Visit) error {
	v.ID = 0
	v.Status = models.VisitScheduled
	v.RemindedAt = nil
	if v.DurationMinutes <= 0 {
		v.DurationMinutes = defaultVisitMinutes
	}
	v.ScheduledAt = v.ScheduledAt.UTC()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var nearby []models.Visit
		err := tx.Where("property_id = ? AND status IN ?", v.PropertyID,
			[]models.VisitStatus{models.VisitScheduled, models.VisitConfirmed}).
			Where("scheduled_at BETWEEN ? AND ?", v.ScheduledAt.Add(-24*time.Hour), visitEnd(v)).
			Find(&nearby).Error
		if err != nil {
			return err
		}
		for i := range nearby {
			if nearby[i].ScheduledAt.Before(visitEnd(v)) && visitEnd(&nearby[i]).After(v.ScheduledAt) {
				return fmt.Errorf("%w: visit %d already booked at %s", ErrConflict, nearby[i].ID,
					nearby[i].ScheduledAt.Format(time.RFC3339))
			}
		}
		return tx.Create(v).Error
	})
	return translate(err)
}

func (d *Database) GetVisit(ctx context.Context, id uint) (*models.Visit, error) {
	var v models.Visit
	if err := d.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (d *Database) GetVisits(ctx context.Context, f models.VisitFilter) ([]models.Visit, error) {
	q := d.db.WithContext(ctx).Model(&models.Visit{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.AmbassadorID != nil {
		q = q.Where("ambassador_id = ?", *f.AmbassadorID)
	}
	if f.PropertyID != nil {
		q = q.Where("property_id = ?", *f.PropertyID)
	}
	if f.SellerID != nil {
		q = q.Where("property_id IN (?)",
			d.db.Model(&models.Property{}).Select("id").Where("seller_id = ?", *f.SellerID))
	}
	if f.From != nil {
		q = q.Where("scheduled_at >= ?", f.From.UTC())
	}

	var visits []models.Visit
	err := q.Order("scheduled_at ASC, id ASC").Find(&visits).Error
	return visits, translate(err)
}

// GetUpcomingVisits returns the next visits still to take place.
func (d *Database) GetUpcomingVisits(ctx context.Context, f models.VisitFilter, now time.Time, limit int) ([]models.Visit, error) {
	f.From = &now
	visits, err := d.GetVisits(ctx, f)
	if err != nil {
		return nil, err
	}
	upcoming := visits[:0]
	for _, v := range visits {
		if v.Status.Upcoming() {
			upcoming = append(upcoming, v)
		}
	}
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

func (d *Database) UpdateVisitStatus(ctx context.Context, id uint, to models.VisitStatus, feedback string) (*models.Visit, error) {
	var v models.Visit
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&v, id).Error; err != nil {
			return err
		}
		if !v.Status.CanTransition(to) {
			return &TransitionError{Entity: "visit", From: string(v.Status), To: string(to)}
		}
		updates := map[string]interface{}{"status": to}
		if feedback != "" {
			updates["feedback"] = feedback
			v.Feedback = feedback
		}
		v.Status = to
		return tx.Model(&models.Visit{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// DueReminders returns upcoming visits starting within lead of now that
// have not been reminded yet.
func (d *Database) DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]models.Visit, error) {
	var visits []models.Visit
	err := d.db.WithContext(ctx).
		Where("status IN ?", []models.VisitStatus{models.VisitScheduled, models.VisitConfirmed}).
		Where("reminded_at IS NULL").
		Where("scheduled_at > ? AND scheduled_at <= ?", now.UTC(), now.Add(lead).UTC()).
		Order("scheduled_at ASC").
		Find(&visits).Error
	return visits, translate(err)
}

func (d *Database) MarkReminded(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := d.db.WithContext(ctx).Model(&models.Visit{}).
		Where("id IN ?", ids).
		Update("reminded_at", at.UTC()).Error
	return translate(err)
}
