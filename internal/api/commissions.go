package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
)

// GetCommissions returns the commission lines with totals computed from them.
func (h *Handler) GetCommissions(c *gin.Context) {
	p, _ := principalFrom(c)

	f := models.CommissionFilter{Status: models.CommissionStatus(c.Query("status"))}
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

	commissions, err := h.db.GetCommissions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get commissions")
		return
	}
	if commissions == nil {
		commissions = []models.Commission{}
	}
	c.JSON(http.StatusOK, gin.H{
		"commissions": commissions,
		"summary":     models.Summarize(commissions),
	})
}

type commissionRequest struct {
	Type         models.CommissionType `json:"type" binding:"required"`
	Label        string                `json:"label"`
	Amount       float64               `json:"amount" binding:"gt=0"`
	AmbassadorID uint                  `json:"ambassador_id" binding:"required"`
	PropertyID   *uint                 `json:"property_id"`
	SellerID     *uint                 `json:"seller_id"`
}

func (h *Handler) CreateCommission(c *gin.Context) {
	var req commissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if !req.Type.Valid() {
		badRequest(c, "Unknown commission type")
		return
	}

	commission := &models.Commission{
		Type:         req.Type,
		Label:        strings.TrimSpace(req.Label),
		Amount:       req.Amount,
		AmbassadorID: req.AmbassadorID,
		PropertyID:   req.PropertyID,
		SellerID:     req.SellerID,
	}
	if err := h.db.CreateCommission(c.Request.Context(), commission); err != nil {
		h.respondError(c, err, "create commission")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventCommissionCreated,
		EntityType: "commission",
		EntityID:   commission.ID,
		Message:    fmt.Sprintf("%s commission of %.2f € for ambassador #%d", commission.Type, commission.Amount, commission.AmbassadorID),
	})
	c.JSON(http.StatusCreated, commission)
}

func (h *Handler) UpdateCommissionStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	to := models.CommissionStatus(req.Status)
	if !to.Valid() {
		badRequest(c, "Unknown status")
		return
	}

	updated, err := h.db.UpdateCommissionStatus(c.Request.Context(), id, to)
	if err != nil {
		h.respondError(c, err, "update commission status")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventCommissionStatus,
		EntityType: "commission",
		EntityID:   updated.ID,
		Message:    fmt.Sprintf("Commission #%d is now %s", updated.ID, updated.Status),
	})
	c.JSON(http.StatusOK, updated)
}
