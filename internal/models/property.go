package models

import (
	"fmt"
	"strings"
	"time"
)

type PropertyStatus string

const (
	PropertyDraft  PropertyStatus = "draft"
	PropertyActive PropertyStatus = "active"
	PropertySold   PropertyStatus = "sold"
)

var propertyTransitions = transitions[PropertyStatus]{
	PropertyDraft:  {PropertyActive},
	PropertyActive: {PropertyDraft, PropertySold},
}

// CanTransition reports whether a listing may move from s to next.
func (s PropertyStatus) CanTransition(next PropertyStatus) bool {
	return propertyTransitions.allows(s, next)
}

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyDraft, PropertyActive, PropertySold:
		return true
	}
	return false
}

type PropertyType string

const (
	TypeApartment PropertyType = "apartment"
	TypeHouse     PropertyType = "house"
	TypeLand      PropertyType = "land"
	TypeOther     PropertyType = "other"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeApartment, TypeHouse, TypeLand, TypeOther:
		return true
	}
	return false
}

type Property struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Reference     string         `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	PropertyType  PropertyType   `gorm:"size:20;not null" json:"property_type"`
	Address       string         `gorm:"size:255;not null" json:"address"`
	PostalCode    string         `gorm:"size:10;index" json:"postal_code"`
	City          string         `gorm:"size:100;index" json:"city"`
	Price         int            `json:"price"`
	Surface       float64        `json:"surface"`
	CarrezSurface *float64       `json:"carrez_surface"`
	Rooms         int            `json:"rooms"`
	Bedrooms      int            `json:"bedrooms"`
	Bathrooms     int            `json:"bathrooms"`
	EnergyClass   string         `gorm:"size:1" json:"energy_class"`
	Status        PropertyStatus `gorm:"size:20;index;not null" json:"status"`
	SellerID      uint           `gorm:"index" json:"seller_id"`
	AmbassadorID  *uint          `gorm:"index" json:"ambassador_id"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	GeocodingDone bool           `gorm:"default:false" json:"-"`
	Photos        []Photo        `gorm:"constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	PublishedAt   *time.Time     `json:"published_at"`
	SoldAt        *time.Time     `json:"sold_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PricePerSqm returns 0 when the surface is unknown.
func (p *Property) PricePerSqm() float64 {
	if p.Surface <= 0 {
		return 0
	}
	return float64(p.Price) / p.Surface
}

// ManagedBy reports whether the ambassador manages this listing.
func (p *Property) ManagedBy(ambassadorID uint) bool {
	return p.AmbassadorID != nil && *p.AmbassadorID == ambassadorID
}

// ComplianceIssues lists what prevents the listing from being published.
// An empty result means the listing may go live.
func (p *Property) ComplianceIssues() []string {
	var issues []string
	if p.Price <= 0 {
		issues = append(issues, "price must be positive")
	}
	if p.Surface <= 0 {
		issues = append(issues, "surface must be positive")
	}
	if !validEnergyClass(p.EnergyClass) {
		issues = append(issues, "DPE energy class is missing")
	}
	if p.PropertyType == TypeApartment && (p.CarrezSurface == nil || *p.CarrezSurface <= 0) {
		issues = append(issues, "Loi Carrez surface is required for apartments")
	}
	if len(p.Photos) == 0 {
		issues = append(issues, "at least one photo is required")
	}
	return issues
}

func validEnergyClass(class string) bool {
	return len(class) == 1 && strings.Contains("ABCDEFG", strings.ToUpper(class))
}

// NormalizeEnergyClass upper-cases a DPE class and rejects anything outside A-G.
func NormalizeEnergyClass(class string) (string, error) {
	class = strings.ToUpper(strings.TrimSpace(class))
	if class == "" {
		return "", nil
	}
	if !validEnergyClass(class) {
		return "", fmt.Errorf("invalid energy class %q", class)
	}
	return class, nil
}

type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PropertyID  uint      `gorm:"index;not null" json:"property_id"`
	StorageKey  string    `gorm:"size:255;not null" json:"storage_key"`
	URL         string    `gorm:"size:512" json:"url"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

type PropertyStats struct {
	TotalProperties int     `json:"total_properties"`
	TotalDraft      int     `json:"total_draft"`
	TotalActive     int     `json:"total_active"`
	TotalSold       int     `json:"total_sold"`
	AveragePrice    float64 `json:"average_price"`
	PricePerSqm     float64 `json:"price_per_sqm"`
}
