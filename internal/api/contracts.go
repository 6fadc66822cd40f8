package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
)

// GetContracts lists every contract for trust managers and only the
// contracts involving the caller otherwise.
func (h *Handler) GetContracts(c *gin.Context) {
	p, _ := principalFrom(c)

	f := models.ContractFilter{Status: models.ContractStatus(c.Query("status"))}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, "Unknown status")
		return
	}
	propertyID, ok := optionalID(c, "property_id")
	if !ok {
		return
	}
	f.PropertyID = propertyID
	if p.Role != models.RoleTrustManager {
		id := p.UserID
		f.UserID = &id
	}

	contracts, err := h.db.GetContracts(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get contracts")
		return
	}
	c.JSON(http.StatusOK, contracts)
}

type signatoryRequest struct {
	UserID *uint       `json:"user_id"`
	Name   string      `json:"name" binding:"required"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

type contractRequest struct {
	Type        models.ContractType `json:"type" binding:"required"`
	PropertyID  uint                `json:"property_id" binding:"required"`
	Signatories []signatoryRequest  `json:"signatories" binding:"dive"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
}

func (h *Handler) CreateContract(c *gin.Context) {
	p, _ := principalFrom(c)

	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if !req.Type.Valid() {
		badRequest(c, "Unknown contract type")
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		badRequest(c, "end_date is before start_date")
		return
	}

	property, err := h.db.GetProperty(c.Request.Context(), req.PropertyID)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}
	if !canManage(p, property) {
		forbidden(c)
		return
	}

	contract := &models.Contract{
		Type:       req.Type,
		PropertyID: property.ID,
		CreatedBy:  p.UserID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	for _, s := range req.Signatories {
		if s.Role != "" && !s.Role.Valid() {
			badRequest(c, "Unknown signatory role")
			return
		}
		contract.Signatories = append(contract.Signatories, models.Signatory{
			UserID: s.UserID,
			Name:   strings.TrimSpace(s.Name),
			Email:  strings.ToLower(strings.TrimSpace(s.Email)),
			Role:   s.Role,
		})
	}

	if err := h.db.CreateContract(c.Request.Context(), contract); err != nil {
		h.respondError(c, err, "create contract")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventContractCreated,
		EntityType: "contract",
		EntityID:   contract.ID,
		Message:    fmt.Sprintf("%s contract drafted for listing #%d", contract.Type, contract.PropertyID),
	})
	c.JSON(http.StatusCreated, contract)
}

// loadContract fetches a contract the caller may act on as its author or
// as a trust manager.
func (h *Handler) loadContract(c *gin.Context) (*models.Contract, bool) {
	p, _ := principalFrom(c)
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	contract, err := h.db.GetContract(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get contract")
		return nil, false
	}
	if p.Role != models.RoleTrustManager && contract.CreatedBy != p.UserID {
		forbidden(c)
		return nil, false
	}
	return contract, true
}

func (h *Handler) SendContract(c *gin.Context) {
	contract, ok := h.loadContract(c)
	if !ok {
		return
	}
	sent, err := h.db.SendContract(c.Request.Context(), contract.ID)
	if err != nil {
		h.respondError(c, err, "send contract")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventContractSent,
		EntityType: "contract",
		EntityID:   sent.ID,
		Message:    fmt.Sprintf("Contract sent to %d signatories", len(sent.Signatories)),
	})
	c.JSON(http.StatusOK, sent)
}

func (h *Handler) CancelContract(c *gin.Context) {
	contract, ok := h.loadContract(c)
	if !ok {
		return
	}
	cancelled, err := h.db.CancelContract(c.Request.Context(), contract.ID)
	if err != nil {
		h.respondError(c, err, "cancel contract")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventContractCancelled,
		EntityType: "contract",
		EntityID:   cancelled.ID,
		Message:    "Contract cancelled",
	})
	c.JSON(http.StatusOK, cancelled)
}

// SignContract records the caller's signature. Parties without an account
// are signed for by a trust manager.
func (h *Handler) SignContract(c *gin.Context) {
	p, _ := principalFrom(c)
	contractID, ok := idParam(c, "id")
	if !ok {
		return
	}
	signatoryID, ok := idParam(c, "sid")
	if !ok {
		return
	}

	contract, err := h.db.GetContract(c.Request.Context(), contractID)
	if err != nil {
		h.respondError(c, err, "get contract")
		return
	}
	var signatory *models.Signatory
	for i := range contract.Signatories {
		if contract.Signatories[i].ID == signatoryID {
			signatory = &contract.Signatories[i]
			break
		}
	}
	if signatory == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if signatory.UserID == nil {
		if p.Role != models.RoleTrustManager {
			forbidden(c)
			return
		}
	} else if *signatory.UserID != p.UserID {
		forbidden(c)
		return
	}

	signed, err := h.db.SignContract(c.Request.Context(), contractID, signatoryID)
	if err != nil {
		h.respondError(c, err, "sign contract")
		return
	}
	if signed.Status == models.ContractSigned {
		h.publish(c, &models.ActivityEvent{
			Kind:       models.EventContractSigned,
			EntityType: "contract",
			EntityID:   signed.ID,
			Message:    fmt.Sprintf("%s contract for listing #%d signed by all parties", signed.Type, signed.PropertyID),
		})
	}
	c.JSON(http.StatusOK, signed)
}
