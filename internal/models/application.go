package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

var applicationTransitions = transitions[ApplicationStatus]{
	ApplicationPending: {ApplicationApproved, ApplicationRejected},
}

func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	return applicationTransitions.allows(s, next)
}

func (s ApplicationStatus) Valid() bool {
	return s == ApplicationPending || s == ApplicationApproved || s == ApplicationRejected
}

// AmbassadorApplication is a candidate submitted through ambassador onboarding.
type AmbassadorApplication struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	FirstName          string            `gorm:"size:100;not null" json:"first_name"`
	LastName           string            `gorm:"size:100;not null" json:"last_name"`
	Email              string            `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone              string            `gorm:"size:50" json:"phone"`
	ProfessionalStatus string            `gorm:"size:50" json:"professional_status"`
	Siret              string            `gorm:"size:14" json:"siret"`
	City               string            `gorm:"size:100" json:"city"`
	PostalCode         string            `gorm:"size:10" json:"postal_code"`
	ExperienceYears    int               `json:"experience_years"`
	Motivation         string            `gorm:"type:text" json:"motivation"`
	Status             ApplicationStatus `gorm:"size:20;index;not null" json:"status"`
	DecidedBy          *uint             `json:"decided_by"`
	DecidedAt          *time.Time        `json:"decided_at"`
	CreatedAt          time.Time         `json:"created_at"`
}
