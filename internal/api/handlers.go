package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"loopimmo/server/internal/database"
	"loopimmo/server/internal/models"
	"loopimmo/server/internal/photos"
	"loopimmo/server/internal/pricing"
	"loopimmo/server/internal/wizard"
)

// Publisher accepts activity events for asynchronous processing.
type Publisher interface {
	Push(events ...*models.ActivityEvent) error
}

type Options struct {
	Schedule pricing.Schedule
	Events   Publisher

	// Photos and Geocoder are optional; their endpoints answer 503 without them.
	Photos   photos.Store
	Geocoder database.Geocoder

	// Market price used by estimations when no comparable listing exists
	DefaultPricePerSqm float64
}

type Handler struct {
	db                 *database.Database
	logger             *logrus.Logger
	schedule           pricing.Schedule
	events             Publisher
	photos             photos.Store
	geocoder           database.Geocoder
	defaultPricePerSqm float64
}

func NewHandler(db *database.Database, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.Schedule.Platform.Tiers == nil {
		opts.Schedule = pricing.DefaultSchedule()
	}
	if opts.DefaultPricePerSqm <= 0 {
		opts.DefaultPricePerSqm = 3500
	}

	return &Handler{
		db:                 db,
		logger:             logger,
		schedule:           opts.Schedule,
		events:             opts.Events,
		photos:             opts.Photos,
		geocoder:           opts.Geocoder,
		defaultPricePerSqm: opts.DefaultPricePerSqm,
	}
}

// publish hands events to the queue. A full queue loses the events but
// never fails the request that produced them.
func (h *Handler) publish(c *gin.Context, events ...*models.ActivityEvent) {
	if h.events == nil {
		return
	}
	if p, ok := principalFrom(c); ok {
		for _, e := range events {
			if e.ActorID == nil {
				id := p.UserID
				e.ActorID = &id
			}
		}
	}
	if err := h.events.Push(events...); err != nil {
		h.logger.WithError(err).WithField("count", len(events)).Warn("Dropped activity events")
	}
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error, action string) {
	var (
		compliance *database.ComplianceError
		stepErr    *wizard.StepError
		fieldErr   *wizard.FieldError
	)
	switch {
	case errors.As(err, &compliance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": compliance.Error(), "issues": compliance.Issues})
	case errors.As(err, &stepErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   stepErr.Error(),
			"step":    stepErr.Step,
			"missing": stepErr.Missing,
		})
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldErr.Error(), "field": fieldErr.Field})
	case errors.Is(err, database.ErrNotFound), errors.Is(err, wizard.ErrUnknownWizard):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, database.ErrConflict),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrAlreadySigned):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrInvalidContract):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, pricing.ErrInvalidLoan),
		errors.Is(err, wizard.ErrStepOutOfRange),
		errors.Is(err, photos.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Failed to " + action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
}

// idParam reads a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// optionalID reads a positive numeric query parameter.
func optionalID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return nil, false
	}
	v := uint(id)
	return &v, true
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
