package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/pricing"
)

// GetPricingTiers returns the fee schedule and the comparison at every anchor value.
func (h *Handler) GetPricingTiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"schedule": h.schedule,
		"anchors":  h.schedule.Anchors(),
	})
}

const maxPropertyValue = 1e10

type estimateRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

func (h *Handler) EstimateFees(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0) || math.Abs(*req.Value) > maxPropertyValue {
		badRequest(c, "value must be a finite number within range")
		return
	}
	c.JSON(http.StatusOK, h.schedule.Compare(*req.Value))
}

type loanRequest struct {
	pricing.Loan
	MonthlyIncome float64 `json:"monthly_income"`
}

type loanResponse struct {
	pricing.Amortization
	DebtRatio    *float64 `json:"debt_ratio,omitempty"`
	MaxBorrowing *float64 `json:"max_borrowing,omitempty"`
}

// SimulateLoan amortizes a loan and, given an income, checks it against
// the lenders' debt ratio.
func (h *Handler) SimulateLoan(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	amortization, err := pricing.Amortize(req.Loan)
	if err != nil {
		h.respondError(c, err, "simulate loan")
		return
	}
	resp := loanResponse{Amortization: amortization}

	if req.MonthlyIncome > 0 {
		ratio, err := pricing.DebtRatio(amortization.MonthlyPayment, req.MonthlyIncome)
		if err != nil {
			h.respondError(c, err, "simulate loan")
			return
		}
		capacity, err := pricing.MaxBorrowing(req.MonthlyIncome, req.AnnualRate, req.Years, pricing.DefaultDebtRatio)
		if err != nil {
			h.respondError(c, err, "simulate loan")
			return
		}
		resp.DebtRatio = &ratio
		resp.MaxBorrowing = &capacity
	}
	c.JSON(http.StatusOK, resp)
}
