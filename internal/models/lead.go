package models

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

var leadTransitions = transitions[LeadStatus]{
	LeadNew:       {LeadContacted, LeadLost},
	LeadContacted: {LeadQualified, LeadLost},
	LeadQualified: {LeadConverted, LeadLost},
	LeadLost:      {LeadContacted},
}

func (s LeadStatus) CanTransition(next LeadStatus) bool {
	return leadTransitions.allows(s, next)
}

// Next lists the statuses a lead may move to from s.
func (s LeadStatus) Next() []LeadStatus {
	return leadTransitions.next(s)
}

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

type FinancingStatus string

const (
	FinancingUnknown     FinancingStatus = "unknown"
	FinancingNone        FinancingStatus = "none"
	FinancingInProgress  FinancingStatus = "in_progress"
	FinancingPreApproved FinancingStatus = "pre_approved"
	FinancingApproved    FinancingStatus = "approved"
)

func (f FinancingStatus) Valid() bool {
	switch f {
	case FinancingUnknown, FinancingNone, FinancingInProgress, FinancingPreApproved, FinancingApproved:
		return true
	}
	return false
}

type Lead struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ClientName      string          `gorm:"size:200;not null" json:"client_name"`
	ClientEmail     string          `gorm:"size:255" json:"client_email"`
	ClientPhone     string          `gorm:"size:50" json:"client_phone"`
	Status          LeadStatus      `gorm:"size:20;index;not null" json:"status"`
	Urgency         Urgency         `gorm:"size:10" json:"urgency"`
	FinancingStatus FinancingStatus `gorm:"size:20" json:"financing_status"`
	PropertyID      *uint           `gorm:"index" json:"property_id"`
	AmbassadorID    *uint           `gorm:"index" json:"ambassador_id"`
	BuyerID         *uint           `gorm:"index" json:"buyer_id"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type LeadFilter struct {
	Status       LeadStatus
	AmbassadorID *uint
	BuyerID      *uint
}
