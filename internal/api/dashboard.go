package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"loopimmo/server/internal/models"
)

const dashboardVisits = 5

// GetDashboard builds the caller's summary. Independent sections are loaded
// concurrently.
func (h *Handler) GetDashboard(c *gin.Context) {
	p, _ := principalFrom(c)
	now := time.Now().UTC()

	dash := models.Dashboard{Role: p.Role}
	id := p.UserID
	self := &id

	g, ctx := errgroup.WithContext(c.Request.Context())

	// Each goroutine writes a distinct field of dash.
	loadStats := func(sellerID, ambassadorID *uint) {
		g.Go(func() error {
			stats, err := h.db.GetPropertyStats(ctx, sellerID, ambassadorID)
			if err != nil {
				return err
			}
			dash.Properties = &stats
			dash.DraftListings = stats.TotalDraft
			return nil
		})
	}
	loadVisits := func(f models.VisitFilter) {
		g.Go(func() error {
			visits, err := h.db.GetUpcomingVisits(ctx, f, now, dashboardVisits)
			if err != nil {
				return err
			}
			dash.UpcomingVisits = visits
			return nil
		})
	}
	loadLeads := func(ambassadorID *uint) {
		g.Go(func() error {
			counts, err := h.db.CountLeadsByStatus(ctx, ambassadorID)
			if err != nil {
				return err
			}
			dash.LeadsByStatus = counts
			return nil
		})
	}
	loadCommissions := func(ambassadorID *uint) {
		g.Go(func() error {
			commissions, err := h.db.GetCommissions(ctx, models.CommissionFilter{AmbassadorID: ambassadorID})
			if err != nil {
				return err
			}
			summary := models.Summarize(commissions)
			dash.Commissions = &summary
			return nil
		})
	}
	loadContracts := func(userID *uint) {
		g.Go(func() error {
			count, err := h.db.CountPendingContracts(ctx, userID)
			if err != nil {
				return err
			}
			dash.PendingContracts = count
			return nil
		})
	}

	switch p.Role {
	case models.RoleSeller:
		loadStats(self, nil)
		loadVisits(models.VisitFilter{SellerID: self})
		loadContracts(self)
	case models.RoleBuyer:
		loadVisits(models.VisitFilter{BuyerID: self})
		loadContracts(self)
	case models.RoleAmbassador:
		loadStats(nil, self)
		loadVisits(models.VisitFilter{AmbassadorID: self})
		loadLeads(self)
		loadCommissions(self)
		loadContracts(self)
	case models.RoleTrustManager:
		loadStats(nil, nil)
		loadLeads(nil)
		loadCommissions(nil)
		loadContracts(nil)
		g.Go(func() error {
			count, err := h.db.CountApplications(ctx, models.ApplicationPending)
			if err != nil {
				return err
			}
			dash.PendingApps = count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.respondError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}
