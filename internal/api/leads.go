package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
)

type leadResponse struct {
	models.Lead
	NextStatuses []models.LeadStatus `json:"next_statuses"`
}

func newLeadResponse(lead models.Lead) leadResponse {
	next := lead.Status.Next()
	if next == nil {
		next = []models.LeadStatus{}
	}
	return leadResponse{Lead: lead, NextStatuses: next}
}

func (h *Handler) GetLeads(c *gin.Context) {
	p, _ := principalFrom(c)

	f := models.LeadFilter{Status: models.LeadStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, "Unknown status")
		return
	}
	if p.Role == models.RoleAmbassador {
		id := p.UserID
		f.AmbassadorID = &id
	} else {
		ambassadorID, ok := optionalID(c, "ambassador_id")
		if !ok {
			return
		}
		f.AmbassadorID = ambassadorID
	}

	leads, err := h.db.GetLeads(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get leads")
		return
	}
	out := make([]leadResponse, len(leads))
	for i, lead := range leads {
		out[i] = newLeadResponse(lead)
	}
	c.JSON(http.StatusOK, out)
}

type leadRequest struct {
	ClientName      string                 `json:"client_name" binding:"required"`
	ClientEmail     string                 `json:"client_email"`
	ClientPhone     string                 `json:"client_phone"`
	Urgency         models.Urgency         `json:"urgency"`
	FinancingStatus models.FinancingStatus `json:"financing_status"`
	PropertyID      *uint                  `json:"property_id"`
	Notes           string                 `json:"notes"`
}

// CreateLead records a buyer's interest. Buyer leads are routed to the
// ambassador managing the matched listing.
func (h *Handler) CreateLead(c *gin.Context) {
	p, _ := principalFrom(c)

	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.Urgency != "" && !req.Urgency.Valid() {
		badRequest(c, "Unknown urgency")
		return
	}
	if req.FinancingStatus != "" && !req.FinancingStatus.Valid() {
		badRequest(c, "Unknown financing status")
		return
	}

	lead := &models.Lead{
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		Urgency:         req.Urgency,
		FinancingStatus: req.FinancingStatus,
		PropertyID:      req.PropertyID,
		Notes:           req.Notes,
	}

	if req.PropertyID != nil {
		property, err := h.db.GetProperty(c.Request.Context(), *req.PropertyID)
		if err != nil {
			h.respondError(c, err, "get property")
			return
		}
		lead.AmbassadorID = property.AmbassadorID
	}

	id := p.UserID
	switch p.Role {
	case models.RoleBuyer:
		lead.BuyerID = &id
	case models.RoleAmbassador:
		lead.AmbassadorID = &id
	}

	if err := h.db.CreateLead(c.Request.Context(), lead); err != nil {
		h.respondError(c, err, "create lead")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventLeadCreated,
		EntityType: "lead",
		EntityID:   lead.ID,
		Message:    fmt.Sprintf("Lead for %s (%s urgency)", lead.ClientName, lead.Urgency),
	})
	c.JSON(http.StatusCreated, newLeadResponse(*lead))
}

func (h *Handler) UpdateLeadStatus(c *gin.Context) {
	p, _ := principalFrom(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	to := models.LeadStatus(req.Status)
	if !to.Valid() {
		badRequest(c, "Unknown status")
		return
	}

	lead, err := h.db.GetLead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get lead")
		return
	}
	if p.Role == models.RoleAmbassador && (lead.AmbassadorID == nil || *lead.AmbassadorID != p.UserID) {
		forbidden(c)
		return
	}

	updated, err := h.db.UpdateLeadStatus(c.Request.Context(), id, to)
	if err != nil {
		h.respondError(c, err, "update lead status")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventLeadStatus,
		EntityType: "lead",
		EntityID:   updated.ID,
		Message:    fmt.Sprintf("Lead %s moved from %s to %s", updated.ClientName, lead.Status, updated.Status),
	})
	c.JSON(http.StatusOK, newLeadResponse(*updated))
}
