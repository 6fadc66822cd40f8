package models

import "time"

type EventKind string

const (
	EventPropertyCreated    EventKind = "property.created"
	EventPropertyStatus     EventKind = "property.status_changed"
	EventLeadCreated        EventKind = "lead.created"
	EventLeadStatus         EventKind = "lead.status_changed"
	EventCommissionCreated  EventKind = "commission.created"
	EventCommissionStatus   EventKind = "commission.status_changed"
	EventContractCreated    EventKind = "contract.created"
	EventContractSent       EventKind = "contract.sent"
	EventContractSigned     EventKind = "contract.signed"
	EventContractCancelled  EventKind = "contract.cancelled"
	EventVisitScheduled     EventKind = "visit.scheduled"
	EventVisitStatus        EventKind = "visit.status_changed"
	EventVisitReminder      EventKind = "visit.reminder"
	EventEstimation         EventKind = "estimation.requested"
	EventApplicationCreated EventKind = "application.created"
	EventApplicationDecided EventKind = "application.decided"
)

// ActivityEvent is an append-only record of something that happened on the platform.
type ActivityEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Kind       EventKind `gorm:"size:50;index;not null" json:"kind"`
	EntityType string    `gorm:"size:30;index:idx_activity_entity" json:"entity_type"`
	EntityID   uint      `gorm:"index:idx_activity_entity" json:"entity_id"`
	ActorID    *uint     `json:"actor_id"`
	Message    string    `gorm:"size:500" json:"message"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

type ActivityFilter struct {
	EntityType string
	EntityID   *uint
	Kind       EventKind
	Limit      int
}
