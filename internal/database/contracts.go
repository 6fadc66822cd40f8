package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

// CreateContract stores a draft contract with its unsigned signatories.
func (d *Database) CreateContract(ctx context.Context, c *models.Contract) error {
	c.ID = 0
	c.Reference = uuid.NewString()
	c.Status = models.ContractDraft
	c.SentAt = nil
	c.SignedAt = nil
	for i := range c.Signatories {
		c.Signatories[i].ID = 0
		c.Signatories[i].Signed = false
		c.Signatories[i].SignedAt = nil
	}
	return translate(d.db.WithContext(ctx).Create(c).Error)
}

func (d *Database) GetContract(ctx context.Context, id uint) (*models.Contract, error) {
	var c models.Contract
	if err := d.db.WithContext(ctx).Preload("Signatories").First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (d *Database) GetContracts(ctx context.Context, f models.ContractFilter) ([]models.Contract, error) {
	q := d.db.WithContext(ctx).Model(&models.Contract{}).Preload("Signatories")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PropertyID != nil {
		q = q.Where("property_id = ?", *f.PropertyID)
	}
	if f.UserID != nil {
		q = q.Where("(created_by = ? OR id IN (?))", *f.UserID,
			d.db.Model(&models.Signatory{}).Select("contract_id").Where("user_id = ?", *f.UserID))
	}

	var contracts []models.Contract
	err := q.Order("created_at DESC, id DESC").Find(&contracts).Error
	return contracts, translate(err)
}

// SendContract opens a draft for signature.
func (d *Database) SendContract(ctx context.Context, id uint) (*models.Contract, error) {
	var c models.Contract
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Signatories").First(&c, id).Error; err != nil {
			return err
		}
		if !c.Status.CanTransition(models.ContractPendingSignature) {
			return &TransitionError{Entity: "contract", From: string(c.Status), To: string(models.ContractPendingSignature)}
		}
		if len(c.Signatories) < models.MinSignatories {
			return fmt.Errorf("%w: at least %d signatories are required", ErrInvalidContract, models.MinSignatories)
		}

		now := time.Now().UTC()
		c.Status = models.ContractPendingSignature
		c.SentAt = &now
		return tx.Model(&models.Contract{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": c.Status, "sent_at": now}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// SignContract records one party's signature. The contract becomes signed
// when the last party signs. A party cannot sign twice.
func (d *Database) SignContract(ctx context.Context, contractID, signatoryID uint) (*models.Contract, error) {
	var c models.Contract
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Signatories").First(&c, contractID).Error; err != nil {
			return err
		}
		if c.Status != models.ContractPendingSignature {
			return &TransitionError{Entity: "contract", From: string(c.Status), To: string(models.ContractSigned)}
		}

		idx := -1
		for i, s := range c.Signatories {
			if s.ID == signatoryID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		if c.Signatories[idx].Signed {
			return ErrAlreadySigned
		}

		now := time.Now().UTC()
		// Conditional update so two concurrent signatures cannot both succeed
		res := tx.Model(&models.Signatory{}).
			Where("id = ? AND signed = ?", signatoryID, false).
			Updates(map[string]interface{}{"signed": true, "signed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySigned
		}
		c.Signatories[idx].Signed = true
		c.Signatories[idx].SignedAt = &now

		if c.FullySigned() {
			c.Status = models.ContractSigned
			c.SignedAt = &now
			return tx.Model(&models.Contract{}).Where("id = ?", contractID).
				Updates(map[string]interface{}{"status": c.Status, "signed_at": now}).Error
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (d *Database) CancelContract(ctx context.Context, id uint) (*models.Contract, error) {
	var c models.Contract
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Signatories").First(&c, id).Error; err != nil {
			return err
		}
		if !c.Status.CanTransition(models.ContractCancelled) {
			return &TransitionError{Entity: "contract", From: string(c.Status), To: string(models.ContractCancelled)}
		}
		c.Status = models.ContractCancelled
		return tx.Model(&models.Contract{}).Where("id = ?", id).Update("status", c.Status).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// CountPendingContracts counts contracts awaiting signatures, optionally
// only those involving the user.
func (d *Database) CountPendingContracts(ctx context.Context, userID *uint) (int, error) {
	q := d.db.WithContext(ctx).Model(&models.Contract{}).Where("status = ?", models.ContractPendingSignature)
	if userID != nil {
		q = q.Where("(created_by = ? OR id IN (?))", *userID,
			d.db.Model(&models.Signatory{}).Select("contract_id").Where("user_id = ?", *userID))
	}
	var count int64
	err := q.Count(&count).Error
	return int(count), translate(err)
}
