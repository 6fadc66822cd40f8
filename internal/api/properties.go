package api

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loopimmo/server/internal/models"
	"loopimmo/server/internal/photos"
)

const (
	maxListingLimit = 100
	defaultRadiusKm = 10
)

type listingQuery struct {
	City       string              `form:"city"`
	PostalCode string              `form:"postal_code"`
	Type       models.PropertyType `form:"type"`
	MinPrice   *int                `form:"min_price"`
	MaxPrice   *int                `form:"max_price"`
	MinSurface *float64            `form:"min_surface"`
	MinRooms   *int                `form:"min_rooms"`
	Lat        *float64            `form:"lat"`
	Lon        *float64            `form:"lon"`
	RadiusKm   float64             `form:"radius_km"`
	Sort       models.ListingSort  `form:"sort"`
	Limit      int                 `form:"limit"`
	Offset     int                 `form:"offset"`
}

func (q listingQuery) filter() (models.ListingFilter, error) {
	f := models.ListingFilter{
		Status:       models.PropertyActive,
		City:         strings.TrimSpace(q.City),
		PostalCode:   strings.TrimSpace(q.PostalCode),
		PropertyType: q.Type,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		MinSurface:   q.MinSurface,
		MinRooms:     q.MinRooms,
		Sort:         q.Sort,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if f.PropertyType != "" && !f.PropertyType.Valid() {
		return f, fmt.Errorf("unknown property type %q", q.Type)
	}
	switch f.Sort {
	case "", models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortSurfaceDesc:
	default:
		return f, fmt.Errorf("unknown sort %q", q.Sort)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, fmt.Errorf("limit and offset must not be negative")
	}
	if f.Limit > maxListingLimit {
		f.Limit = maxListingLimit
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, fmt.Errorf("min_price is above max_price")
	}

	if q.Lat != nil || q.Lon != nil {
		if q.Lat == nil || q.Lon == nil {
			return f, fmt.Errorf("lat and lon must be given together")
		}
		if math.Abs(*q.Lat) > 90 || math.Abs(*q.Lon) > 180 {
			return f, fmt.Errorf("coordinates out of range")
		}
		radius := q.RadiusKm
		if radius <= 0 {
			radius = defaultRadiusKm
		}
		f.Near = &models.Near{Latitude: *q.Lat, Longitude: *q.Lon, RadiusKm: radius}
	}
	return f, nil
}

// GetAllProperties lists published listings.
func (h *Handler) GetAllProperties(c *gin.Context) {
	var q listingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}
	f, err := q.filter()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	properties, err := h.db.GetAllProperties(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}

// canManage reports whether the caller owns, manages or supervises the listing.
func canManage(p models.Principal, property *models.Property) bool {
	switch p.Role {
	case models.RoleTrustManager:
		return true
	case models.RoleSeller:
		return property.SellerID == p.UserID
	case models.RoleAmbassador:
		return property.ManagedBy(p.UserID)
	}
	return false
}

// visibleProperty loads a listing the caller may see. Unpublished listings
// are hidden from everyone but the people managing them.
func (h *Handler) visibleProperty(c *gin.Context) (*models.Property, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	property, err := h.db.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get property")
		return nil, false
	}
	if property.Status != models.PropertyActive {
		p, ok := principalFrom(c)
		if !ok || !canManage(p, property) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return nil, false
		}
	}
	return property, true
}

// managedProperty loads a listing the caller manages.
func (h *Handler) managedProperty(c *gin.Context) (*models.Property, models.Principal, bool) {
	p, _ := principalFrom(c)
	id, ok := idParam(c, "id")
	if !ok {
		return nil, p, false
	}
	property, err := h.db.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get property")
		return nil, p, false
	}
	if !canManage(p, property) {
		forbidden(c)
		return nil, p, false
	}
	return property, p, true
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, ok := h.visibleProperty(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) GetPropertyPhotos(c *gin.Context) {
	property, ok := h.visibleProperty(c)
	if !ok {
		return
	}
	list, err := h.db.GetPropertyPhotos(c.Request.Context(), property.ID)
	if err != nil {
		h.respondError(c, err, "get photos")
		return
	}
	c.JSON(http.StatusOK, list)
}

type propertyRequest struct {
	Title         string              `json:"title" binding:"required"`
	Description   string              `json:"description"`
	PropertyType  models.PropertyType `json:"property_type" binding:"required"`
	Address       string              `json:"address" binding:"required"`
	PostalCode    string              `json:"postal_code" binding:"required"`
	City          string              `json:"city" binding:"required"`
	Price         int                 `json:"price" binding:"gte=0"`
	Surface       float64             `json:"surface" binding:"gte=0"`
	CarrezSurface *float64            `json:"carrez_surface"`
	Rooms         int                 `json:"rooms" binding:"gte=0"`
	Bedrooms      int                 `json:"bedrooms" binding:"gte=0"`
	Bathrooms     int                 `json:"bathrooms" binding:"gte=0"`
	EnergyClass   string              `json:"energy_class"`
	Latitude      *float64            `json:"latitude"`
	Longitude     *float64            `json:"longitude"`

	// Only used when an ambassador lists on behalf of a seller
	SellerID uint `json:"seller_id"`
}

func (h *Handler) CreateProperty(c *gin.Context) {
	p, _ := principalFrom(c)

	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if !req.PropertyType.Valid() {
		badRequest(c, "Unknown property type")
		return
	}
	energyClass, err := models.NormalizeEnergyClass(req.EnergyClass)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	property := &models.Property{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		PropertyType:  req.PropertyType,
		Address:       strings.TrimSpace(req.Address),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		City:          strings.TrimSpace(req.City),
		Price:         req.Price,
		Surface:       req.Surface,
		CarrezSurface: req.CarrezSurface,
		Rooms:         req.Rooms,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		EnergyClass:   energyClass,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	if !h.assignOwner(c, p, property, req.SellerID) {
		return
	}
	h.storeProperty(c, property)
}

// assignOwner sets the seller and managing ambassador of a new listing.
func (h *Handler) assignOwner(c *gin.Context, p models.Principal, property *models.Property, sellerID uint) bool {
	switch p.Role {
	case models.RoleSeller:
		property.SellerID = p.UserID
	case models.RoleAmbassador:
		if sellerID == 0 {
			badRequest(c, "seller_id is required")
			return false
		}
		id := p.UserID
		property.SellerID = sellerID
		property.AmbassadorID = &id
	default:
		forbidden(c)
		return false
	}
	return true
}

func (h *Handler) storeProperty(c *gin.Context, property *models.Property) {
	if err := h.db.CreateProperty(c.Request.Context(), property); err != nil {
		h.respondError(c, err, "create property")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventPropertyCreated,
		EntityType: "property",
		EntityID:   property.ID,
		Message:    fmt.Sprintf("Draft listing %q created in %s", property.Title, property.City),
	})
	c.JSON(http.StatusCreated, property)
}

// GetMyProperties lists the seller's own listings or the ambassador's managed ones.
func (h *Handler) GetMyProperties(c *gin.Context) {
	p, _ := principalFrom(c)

	f := models.ListingFilter{Status: models.PropertyStatus(c.Query("status")), Limit: maxListingLimit}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, "Unknown status")
		return
	}
	id := p.UserID
	if p.Role == models.RoleSeller {
		f.SellerID = &id
	} else {
		f.AmbassadorID = &id
	}

	properties, err := h.db.GetAllProperties(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// canChangeStatus applies the role rules on top of the listing lifecycle.
// Sellers may only withdraw, ambassadors publish and close their listings,
// trust managers may apply any legal transition.
func canChangeStatus(p models.Principal, property *models.Property, to models.PropertyStatus) bool {
	if !canManage(p, property) {
		return false
	}
	switch p.Role {
	case models.RoleTrustManager:
		return true
	case models.RoleAmbassador:
		return to == models.PropertyActive || to == models.PropertySold
	case models.RoleSeller:
		return to == models.PropertyDraft
	}
	return false
}

func (h *Handler) UpdatePropertyStatus(c *gin.Context) {
	property, p, ok := h.managedProperty(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	to := models.PropertyStatus(req.Status)
	if !to.Valid() {
		badRequest(c, "Unknown status")
		return
	}
	if !canChangeStatus(p, property, to) {
		forbidden(c)
		return
	}

	updated, err := h.db.UpdatePropertyStatus(c.Request.Context(), property.ID, to)
	if err != nil {
		h.respondError(c, err, "update property status")
		return
	}
	h.publish(c, &models.ActivityEvent{
		Kind:       models.EventPropertyStatus,
		EntityType: "property",
		EntityID:   updated.ID,
		Message:    fmt.Sprintf("Listing %q moved from %s to %s", updated.Title, property.Status, updated.Status),
	})
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) GetPropertyCompliance(c *gin.Context) {
	property, _, ok := h.managedProperty(c)
	if !ok {
		return
	}
	issues := property.ComplianceIssues()
	if issues == nil {
		issues = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"compliant": len(issues) == 0,
		"issues":    issues,
	})
}

type photoRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// AddPropertyPhoto reserves a photo slot and returns a presigned upload URL.
func (h *Handler) AddPropertyPhoto(c *gin.Context) {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo uploads are not configured"})
		return
	}
	property, p, ok := h.managedProperty(c)
	if !ok {
		return
	}
	if p.Role == models.RoleTrustManager {
		forbidden(c)
		return
	}

	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	key, err := photos.ObjectKey(property.Reference, req.ContentType)
	if err != nil {
		h.respondError(c, err, "add photo")
		return
	}
	upload, err := h.photos.PresignUpload(c.Request.Context(), key, req.ContentType)
	if err != nil {
		h.respondError(c, err, "presign photo upload")
		return
	}

	photo := &models.Photo{
		PropertyID:  property.ID,
		StorageKey:  key,
		URL:         upload.PublicURL,
		ContentType: req.ContentType,
	}
	if err := h.db.AddPhoto(c.Request.Context(), photo); err != nil {
		h.respondError(c, err, "add photo")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"photo": photo, "upload": upload})
}
