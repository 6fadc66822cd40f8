package models

// Dashboard is the role-specific summary returned to the caller.
// Sections that do not apply to the role are omitted.
type Dashboard struct {
	Role             Role               `json:"role"`
	Properties       *PropertyStats     `json:"properties,omitempty"`
	LeadsByStatus    map[LeadStatus]int `json:"leads_by_status,omitempty"`
	Commissions      *CommissionSummary `json:"commissions,omitempty"`
	UpcomingVisits   []Visit            `json:"upcoming_visits,omitempty"`
	PendingContracts int                `json:"pending_contracts"`
	DraftListings    int                `json:"draft_listings,omitempty"`
	PendingApps      int                `json:"pending_applications,omitempty"`
}
