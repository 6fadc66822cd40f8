package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
)

const upcomingVisitsLimit = 20

// GetVisits scopes the list to the caller's role.
func (h *Handler) GetVisits(c *gin.Context) {
	p, _ := principalFrom(c)

	f := models.VisitFilter{Status: models.VisitStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, "Unknown status")
		return
	}
	propertyID, ok := optionalID(c, "property_id")
	if !ok {
		return
	}
	f.PropertyID = propertyID

	id := p.UserID
	switch p.Role {
	case models.RoleBuyer:
		f.BuyerID = &id
	case models.RoleAmbassador:
		f.AmbassadorID = &id
	case models.RoleSeller:
		f.SellerID = &id
	}

	var (
		visits []models.Visit
		err    error
	)
	if c.Query("upcoming") == "true" {
		visits, err = h.db.GetUpcomingVisits(c.Request.Context(), f, time.Now().UTC(), upcomingVisitsLimit)
	} else {
		visits, err = h.db.GetVisits(c.Request.Context(), f)
	}
	if err != nil {
		h.respondError(c, err, "get visits")
		return
	}
	c.JSON(http.StatusOK, visits)
}

type visitRequest struct {
	PropertyID      uint      `json:"property_id" binding:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"gte=0,lte=240"`

	// Only used when an ambassador books for a buyer
	BuyerID uint `json:"buyer_id"`
}

func (h *Handler) CreateVisit(c *gin.Context) {
	p, _ := principalFrom(c)

	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if !req.ScheduledAt.After(time.Now()) {
		badRequest(c, "scheduled_at must be in the future")
		return
	}

	property, err := h.db.GetProperty(c.Request.Context(), req.PropertyID)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}
	if property.Status != models.PropertyActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Only published listings can be visited"})
		return
	}

	visit := &models.Visit{
		PropertyID:      property.ID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		AmbassadorID:    property.AmbassadorID,
	}
	switch p.Role {
	case models.RoleBuyer:
		visit.BuyerID = p.UserID
	case models.RoleAmbassador:
		if req.BuyerID == 0 {
			badRequest(c, "buyer_id is required")
			return
		}
		id := p.UserID
		visit.BuyerID = req.BuyerID
		visit.AmbassadorID = &id
	}

	if err := h.db.CreateVisit(c.Request.Context(), visit); err != nil {
		h.respondError(c, err, "schedule visit")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventVisitScheduled,
		EntityType: "visit",
		EntityID:   visit.ID,
		Message: fmt.Sprintf("Visit of %q booked for %s", property.Title,
			visit.ScheduledAt.Format("02/01/2006 15:04")),
	})
	c.JSON(http.StatusCreated, visit)
}

type visitStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Feedback string `json:"feedback"`
}

// UpdateVisitStatus lets the assigned ambassador run the visit lifecycle.
// Buyers may only cancel their own visits.
func (h *Handler) UpdateVisitStatus(c *gin.Context) {
	p, _ := principalFrom(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req visitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	to := models.VisitStatus(req.Status)
	if !to.Valid() {
		badRequest(c, "Unknown status")
		return
	}

	visit, err := h.db.GetVisit(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get visit")
		return
	}
	switch p.Role {
	case models.RoleBuyer:
		if visit.BuyerID != p.UserID || to != models.VisitCancelled {
			forbidden(c)
			return
		}
	case models.RoleAmbassador:
		if visit.AmbassadorID == nil || *visit.AmbassadorID != p.UserID {
			forbidden(c)
			return
		}
	}

	updated, err := h.db.UpdateVisitStatus(c.Request.Context(), id, to, req.Feedback)
	if err != nil {
		h.respondError(c, err, "update visit status")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventVisitStatus,
		EntityType: "visit",
		EntityID:   updated.ID,
		Message:    fmt.Sprintf("Visit #%d moved from %s to %s", updated.ID, visit.Status, updated.Status),
	})
	c.JSON(http.StatusOK, updated)
}
