package models

import "time"

type VisitStatus string

const (
	VisitScheduled VisitStatus = "scheduled"
	VisitConfirmed VisitStatus = "confirmed"
	VisitCompleted VisitStatus = "completed"
	VisitCancelled VisitStatus = "cancelled"
	VisitNoShow    VisitStatus = "no_show"
)

var visitTransitions = transitions[VisitStatus]{
	VisitScheduled: {VisitConfirmed, VisitCancelled, VisitNoShow},
	VisitConfirmed: {VisitCompleted, VisitCancelled, VisitNoShow},
}

func (s VisitStatus) CanTransition(next VisitStatus) bool {
	return visitTransitions.allows(s, next)
}

func (s VisitStatus) Valid() bool {
	switch s {
	case VisitScheduled, VisitConfirmed, VisitCompleted, VisitCancelled, VisitNoShow:
		return true
	}
	return false
}

// Upcoming reports whether the visit still has to take place.
func (s VisitStatus) Upcoming() bool {
	return s == VisitScheduled || s == VisitConfirmed
}

type Visit struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	PropertyID      uint        `gorm:"index;not null" json:"property_id"`
	BuyerID         uint        `gorm:"index;not null" json:"buyer_id"`
	AmbassadorID    *uint       `gorm:"index" json:"ambassador_id"`
	ScheduledAt     time.Time   `gorm:"index;not null" json:"scheduled_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Status          VisitStatus `gorm:"size:20;index;not null" json:"status"`
	Feedback        string      `gorm:"type:text" json:"feedback"`
	RemindedAt      *time.Time  `json:"reminded_at"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type VisitFilter struct {
	Status       VisitStatus
	BuyerID      *uint
	AmbassadorID *uint
	SellerID     *uint
	PropertyID   *uint
	From         *time.Time
}
