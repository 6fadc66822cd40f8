package api

import (
	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
)

type RouteConfig struct {
	JWTSecret []byte

	// Limiter throttles the unauthenticated endpoints. Nil disables it.
	Limiter *ClientLimiter
}

func SetupRoutes(router *gin.Engine, handler *Handler, cfg RouteConfig) {
	auth := Authenticate(cfg.JWTSecret, false)
	optionalAuth := Authenticate(cfg.JWTSecret, true)

	seller := models.RoleSeller
	buyer := models.RoleBuyer
	ambassador := models.RoleAmbassador
	trust := models.RoleTrustManager

	api := router.Group("/api")
	api.GET("/health", handler.Health)

	public := api.Group("")
	if cfg.Limiter != nil {
		public.Use(RateLimit(cfg.Limiter))
	}
	{
		public.GET("/pricing/tiers", handler.GetPricingTiers)
		public.POST("/pricing/estimate", handler.EstimateFees)
		public.POST("/financing/loan", handler.SimulateLoan)

		public.POST("/wizards/:name/steps/:step/validate", handler.ValidateWizardStep)
		public.POST("/wizards/estimation/submit", handler.SubmitEstimation)
		public.POST("/wizards/onboarding/submit", handler.SubmitOnboarding)

		public.GET("/properties", handler.GetAllProperties)
		public.GET("/properties/:id", optionalAuth, handler.GetProperty)
		public.GET("/properties/:id/photos", optionalAuth, handler.GetPropertyPhotos)
	}

	private := api.Group("", auth)
	{
		private.POST("/wizards/propose-property/submit", RequireRole(seller, ambassador), handler.SubmitProposal)

		private.POST("/properties", RequireRole(seller, ambassador), handler.CreateProperty)
		private.POST("/properties/:id/photos", RequireRole(seller, ambassador), handler.AddPropertyPhoto)
		private.POST("/properties/:id/status", RequireRole(seller, ambassador, trust), handler.UpdatePropertyStatus)
		private.GET("/properties/:id/compliance", RequireRole(seller, ambassador, trust), handler.GetPropertyCompliance)
		private.GET("/me/properties", RequireRole(seller, ambassador), handler.GetMyProperties)

		private.GET("/leads", RequireRole(ambassador, trust), handler.GetLeads)
		private.POST("/leads", RequireRole(buyer, ambassador), handler.CreateLead)
		private.POST("/leads/:id/status", RequireRole(ambassador, trust), handler.UpdateLeadStatus)

		private.GET("/commissions", RequireRole(ambassador, trust), handler.GetCommissions)
		private.POST("/commissions", RequireRole(trust), handler.CreateCommission)
		private.POST("/commissions/:id/status", RequireRole(trust), handler.UpdateCommissionStatus)

		private.GET("/contracts", handler.GetContracts)
		private.POST("/contracts", RequireRole(ambassador, trust), handler.CreateContract)
		private.POST("/contracts/:id/send", RequireRole(ambassador, trust), handler.SendContract)
		private.POST("/contracts/:id/cancel", RequireRole(trust), handler.CancelContract)
		private.POST("/contracts/:id/signatories/:sid/sign", handler.SignContract)

		private.GET("/visits", handler.GetVisits)
		private.POST("/visits", RequireRole(buyer, ambassador), handler.CreateVisit)
		private.POST("/visits/:id/status", RequireRole(buyer, ambassador, trust), handler.UpdateVisitStatus)

		private.GET("/dashboard", handler.GetDashboard)
	}

	staff := api.Group("/trust", auth, RequireRole(trust))
	{
		staff.GET("/applications", handler.GetApplications)
		staff.POST("/applications/:id/decision", handler.DecideApplication)
		staff.GET("/activity", handler.GetActivity)
		staff.POST("/geocode", handler.UpdateCoordinates)
	}
}
