package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/database"
	"loopimmo/server/internal/models"
	"loopimmo/server/internal/pricing"
	"loopimmo/server/internal/wizard"
)

// estimationSpread is the half-width of the estimated value range.
const estimationSpread = 0.05

type wizardRequest struct {
	Values wizard.Values `json:"values"`
}

// ValidateWizardStep tells the client which fields still block a step.
func (h *Handler) ValidateWizardStep(c *gin.Context) {
	def, err := wizard.Lookup(c.Param("name"))
	if err != nil {
		h.respondError(c, err, "validate step")
		return
	}
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		badRequest(c, "Invalid step")
		return
	}
	step, err := def.Step(n)
	if err != nil {
		h.respondError(c, err, "validate step")
		return
	}

	var req wizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	missing := step.Missing(req.Values)
	if missing == nil {
		missing = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"step":    n,
		"name":    step.Name,
		"total":   def.Total(),
		"valid":   len(missing) == 0,
		"missing": missing,
	})
}

// complete binds the submitted values and walks them through every step.
func (h *Handler) complete(c *gin.Context, def *wizard.Definition) (wizard.Values, bool) {
	var req wizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return nil, false
	}
	session := def.Start(req.Values)
	if err := session.Complete(); err != nil {
		h.respondError(c, err, "submit "+def.Name)
		return nil, false
	}
	return session.Values, true
}

type estimationResult struct {
	Request     wizard.EstimationRequest `json:"request"`
	Estimate    float64                  `json:"estimate"`
	Low         float64                  `json:"low"`
	High        float64                  `json:"high"`
	PricePerSqm float64                  `json:"price_per_sqm"`
	Comparables int                      `json:"comparables"`
	Comparison  pricing.Comparison       `json:"comparison"`
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}

// SubmitEstimation values a property from comparable listings in its postal
// code, falling back to the configured market price.
func (h *Handler) SubmitEstimation(c *gin.Context) {
	values, ok := h.complete(c, &wizard.Estimation)
	if !ok {
		return
	}
	req, err := wizard.ParseEstimation(values)
	if err != nil {
		h.respondError(c, err, "submit estimation")
		return
	}

	perSqm, count, err := h.db.ComparablePricePerSqm(c.Request.Context(), req.PostalCode, req.PropertyType)
	if err != nil {
		h.respondError(c, err, "estimate property")
		return
	}
	if count == 0 {
		perSqm = h.defaultPricePerSqm
	}
	perSqm *= req.Condition.Factor()

	estimate := roundTo(perSqm*req.Surface, 1000)
	result := estimationResult{
		Request:     req,
		Estimate:    estimate,
		Low:         roundTo(estimate*(1-estimationSpread), 1000),
		High:        roundTo(estimate*(1+estimationSpread), 1000),
		PricePerSqm: math.Round(perSqm),
		Comparables: count,
		Comparison:  h.schedule.Compare(estimate),
	}

	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventEstimation,
		EntityType: "estimation",
		Message: fmt.Sprintf("%s %s %s, %s m², estimated %.0f € (%s)",
			req.PropertyType, req.PostalCode, req.City,
			strconv.FormatFloat(req.Surface, 'f', -1, 64), estimate, req.Email),
	})
	c.JSON(http.StatusOK, result)
}

// SubmitOnboarding stores an ambassador application for review.
func (h *Handler) SubmitOnboarding(c *gin.Context) {
	values, ok := h.complete(c, &wizard.Onboarding)
	if !ok {
		return
	}
	app, err := wizard.ParseApplication(values)
	if err != nil {
		h.respondError(c, err, "submit application")
		return
	}

	if err := h.db.CreateApplication(c.Request.Context(), &app); err != nil {
		if errors.Is(err, database.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "An application already exists for this email"})
			return
		}
		h.respondError(c, err, "submit application")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventApplicationCreated,
		EntityType: "application",
		EntityID:   app.ID,
		Message:    fmt.Sprintf("%s %s applied as ambassador in %s", app.FirstName, app.LastName, app.City),
	})
	c.JSON(http.StatusCreated, app)
}

// SubmitProposal creates a draft listing owned by the caller.
func (h *Handler) SubmitProposal(c *gin.Context) {
	p, _ := principalFrom(c)

	values, ok := h.complete(c, &wizard.ProposeProperty)
	if !ok {
		return
	}
	property, err := wizard.ParseProposal(values)
	if err != nil {
		h.respondError(c, err, "submit proposal")
		return
	}

	var sellerID uint
	if raw := values["seller_id"]; raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid seller_id")
			return
		}
		sellerID = uint(id)
	}
	if !h.assignOwner(c, p, &property, sellerID) {
		return
	}
	h.storeProperty(c, &property)
}
