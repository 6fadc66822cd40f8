package models

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

type ListingSort string

const (
	SortNewest      ListingSort = "newest"
	SortPriceAsc    ListingSort = "price_asc"
	SortPriceDesc   ListingSort = "price_desc"
	SortSurfaceDesc ListingSort = "surface_desc"
)

// Near restricts results to a radius around a point.
type Near struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// ListingFilter stores the search criteria for property listings.
type ListingFilter struct {
	Status       PropertyStatus
	City         string
	PostalCode   string
	PropertyType PropertyType
	MinPrice     *int
	MaxPrice     *int
	MinSurface   *float64
	MinRooms     *int
	Near         *Near
	SellerID     *uint
	AmbassadorID *uint
	Sort         ListingSort
	Limit        int
	Offset       int
}

// IsPropertyAllowed checks if a property matches the filter criteria
func (f *ListingFilter) IsPropertyAllowed(property *Property) bool {
	if f == nil {
		return true
	}

	if f.Status != "" && property.Status != f.Status {
		return false
	}
	if f.PropertyType != "" && property.PropertyType != f.PropertyType {
		return false
	}
	if f.MinPrice != nil && property.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && property.Price > *f.MaxPrice {
		return false
	}
	if f.MinSurface != nil && property.Surface < *f.MinSurface {
		return false
	}
	if f.MinRooms != nil && property.Rooms < *f.MinRooms {
		return false
	}

	if f.Near != nil {
		// A radius search needs coordinates
		if property.Latitude == nil || property.Longitude == nil {
			return false
		}
		if DistanceKm(f.Near.Latitude, f.Near.Longitude, *property.Latitude, *property.Longitude) > f.Near.RadiusKm {
			return false
		}
	}

	return true
}

// DistanceKm is the great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.Distance(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000
}

// BoundingBox returns the bound enclosing the radius, used to pre-filter in SQL.
func (n *Near) BoundingBox() orb.Bound {
	return geo.NewBoundAroundPoint(orb.Point{n.Longitude, n.Latitude}, n.RadiusKm*1000)
}

// SortProperties orders listings in place.
func SortProperties(properties []Property, order ListingSort) {
	sort.SliceStable(properties, func(i, j int) bool {
		a, b := properties[i], properties[j]
		switch order {
		case SortPriceAsc:
			return a.Price < b.Price
		case SortPriceDesc:
			return a.Price > b.Price
		case SortSurfaceDesc:
			return a.Surface > b.Surface
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}
