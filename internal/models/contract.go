package models

import "time"

type ContractType string

const (
	ContractMandate   ContractType = "mandate"
	ContractPromise   ContractType = "promise"
	ContractSale      ContractType = "sale"
	ContractAmendment ContractType = "amendment"
)

func (t ContractType) Valid() bool {
	switch t {
	case ContractMandate, ContractPromise, ContractSale, ContractAmendment:
		return true
	}
	return false
}

type ContractStatus string

const (
	ContractDraft            ContractStatus = "draft"
	ContractPendingSignature ContractStatus = "pending_signature"
	ContractSigned           ContractStatus = "signed"
	ContractCancelled        ContractStatus = "cancelled"
)

var contractTransitions = transitions[ContractStatus]{
	ContractDraft:            {ContractPendingSignature, ContractCancelled},
	ContractPendingSignature: {ContractSigned, ContractCancelled},
}

func (s ContractStatus) CanTransition(next ContractStatus) bool {
	return contractTransitions.allows(s, next)
}

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractDraft, ContractPendingSignature, ContractSigned, ContractCancelled:
		return true
	}
	return false
}

// MinSignatories is the number of parties a contract needs before it can be sent.
const MinSignatories = 2

type Contract struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Reference   string         `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	Type        ContractType   `gorm:"size:20;not null" json:"type"`
	Status      ContractStatus `gorm:"size:20;index;not null" json:"status"`
	PropertyID  uint           `gorm:"index;not null" json:"property_id"`
	CreatedBy   uint           `json:"created_by"`
	Signatories []Signatory    `gorm:"constraint:OnDelete:CASCADE" json:"signatories"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	SentAt      *time.Time     `json:"sent_at"`
	SignedAt    *time.Time     `json:"signed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FullySigned reports whether every party has signed.
func (c *Contract) FullySigned() bool {
	if len(c.Signatories) == 0 {
		return false
	}
	for _, s := range c.Signatories {
		if !s.Signed {
			return false
		}
	}
	return true
}

// Involves reports whether the user is one of the signing parties.
func (c *Contract) Involves(userID uint) bool {
	for _, s := range c.Signatories {
		if s.UserID != nil && *s.UserID == userID {
			return true
		}
	}
	return false
}

type Signatory struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ContractID uint       `gorm:"index;not null" json:"contract_id"`
	UserID     *uint      `gorm:"index" json:"user_id"`
	Name       string     `gorm:"size:200;not null" json:"name"`
	Email      string     `gorm:"size:255" json:"email"`
	Role       Role       `gorm:"size:20" json:"role"`
	Signed     bool       `gorm:"default:false" json:"signed"`
	SignedAt   *time.Time `json:"signed_at"`
}

type ContractFilter struct {
	Status     ContractStatus
	PropertyID *uint
	UserID     *uint
}
