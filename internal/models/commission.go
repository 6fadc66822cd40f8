package models

import "time"

type CommissionType string

const (
	CommissionDirectSale CommissionType = "direct_sale"
	CommissionReferral   CommissionType = "referral"
	CommissionBonus      CommissionType = "bonus"
)

func (t CommissionType) Valid() bool {
	return t == CommissionDirectSale || t == CommissionReferral || t == CommissionBonus
}

type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionValidated CommissionStatus = "validated"
	CommissionPaid      CommissionStatus = "paid"
)

var commissionTransitions = transitions[CommissionStatus]{
	CommissionPending:   {CommissionValidated},
	CommissionValidated: {CommissionPaid},
}

func (s CommissionStatus) CanTransition(next CommissionStatus) bool {
	return commissionTransitions.allows(s, next)
}

func (s CommissionStatus) Valid() bool {
	return s == CommissionPending || s == CommissionValidated || s == CommissionPaid
}

type Commission struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Type         CommissionType   `gorm:"size:20;not null" json:"type"`
	Label        string           `gorm:"size:200" json:"label"`
	Amount       float64          `gorm:"not null" json:"amount"`
	Status       CommissionStatus `gorm:"size:20;index;not null" json:"status"`
	AmbassadorID uint             `gorm:"index;not null" json:"ambassador_id"`
	PropertyID   *uint            `gorm:"index" json:"property_id"`
	SellerID     *uint            `json:"seller_id"`
	ValidatedAt  *time.Time       `json:"validated_at"`
	PaidAt       *time.Time       `json:"paid_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CommissionSummary totals commissions per status. Totals are always derived
// from the rows they summarize.
type CommissionSummary struct {
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
	Pending   float64 `json:"pending"`
	Validated float64 `json:"validated"`
	Paid      float64 `json:"paid"`
}

// Summarize computes totals over a list of commissions.
func Summarize(commissions []Commission) CommissionSummary {
	var s CommissionSummary
	for _, c := range commissions {
		s.Count++
		s.Total += c.Amount
		switch c.Status {
		case CommissionPending:
			s.Pending += c.Amount
		case CommissionValidated:
			s.Validated += c.Amount
		case CommissionPaid:
			s.Paid += c.Amount
		}
	}
	return s
}

type CommissionFilter struct {
	Status       CommissionStatus
	AmbassadorID *uint
}
