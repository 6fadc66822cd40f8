package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
)

func (h *Handler) GetApplications(c *gin.Context) {
	status := models.ApplicationStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "Unknown status")
		return
	}
	apps, err := h.db.GetApplications(c.Request.Context(), status)
	if err != nil {
		h.respondError(c, err, "get applications")
		return
	}
	c.JSON(http.StatusOK, apps)
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
}

func (h *Handler) DecideApplication(c *gin.Context) {
	p, _ := principalFrom(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "decision must be approved or rejected")
		return
	}

	app, err := h.db.DecideApplication(c.Request.Context(), id, models.ApplicationStatus(req.Decision), p.UserID)
	if err != nil {
		h.respondError(c, err, "decide application")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventApplicationDecided,
		EntityType: "application",
		EntityID:   app.ID,
		Message:    fmt.Sprintf("Application of %s %s %s", app.FirstName, app.LastName, app.Status),
	})
	c.JSON(http.StatusOK, app)
}

// GetActivity returns the audit timeline, newest first.
func (h *Handler) GetActivity(c *gin.Context) {
	f := models.ActivityFilter{
		EntityType: c.Query("entity_type"),
		Kind:       models.EventKind(c.Query("kind")),
	}
	entityID, ok := optionalID(c, "entity_id")
	if !ok {
		return
	}
	f.EntityID = entityID
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			badRequest(c, "Invalid limit")
			return
		}
		f.Limit = min(limit, 500)
	}

	events, err := h.db.GetActivity(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get activity")
		return
	}
	c.JSON(http.StatusOK, events)
}

// UpdateCoordinates geocodes every listing still missing coordinates.
func (h *Handler) UpdateCoordinates(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is disabled"})
		return
	}
	updated, failed, err := h.db.UpdateMissingCoordinates(c.Request.Context(), h.geocoder)
	if err != nil {
		h.respondError(c, err, "update coordinates")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated": updated,
		"failed":  failed,
	})
}
