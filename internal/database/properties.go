package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loopimmo/server/internal/models"
)

const defaultListingLimit = 50

// CreateProperty stores a new listing as a draft.
func (d *Database) CreateProperty(ctx context.Context, p *models.Property) error {
	p.ID = 0
	p.Reference = uuid.NewString()
	p.Status = models.PropertyDraft
	p.PublishedAt = nil
	p.SoldAt = nil
	return translate(d.db.WithContext(ctx).Omit("Photos").Create(p).Error)
}

func (d *Database) GetProperty(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	err := d.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func listingOrder(order models.ListingSort) string {
	switch order {
	case models.SortPriceAsc:
		return "price ASC, id ASC"
	case models.SortPriceDesc:
		return "price DESC, id DESC"
	case models.SortSurfaceDesc:
		return "surface DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// GetAllProperties returns the listings matching the filter. Radius searches
// pre-filter on a bounding box in SQL and refine on exact distance.
func (d *Database) GetAllProperties(ctx context.Context, f models.ListingFilter) ([]models.Property, error) {
	q := d.db.WithContext(ctx).Model(&models.Property{}).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") })

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = LOWER(?)", f.City)
	}
	if f.PostalCode != "" {
		q = q.Where("postal_code LIKE ?", f.PostalCode+"%")
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinSurface != nil {
		q = q.Where("surface >= ?", *f.MinSurface)
	}
	if f.MinRooms != nil {
		q = q.Where("rooms >= ?", *f.MinRooms)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.AmbassadorID != nil {
		q = q.Where("ambassador_id = ?", *f.AmbassadorID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}

	var properties []models.Property
	if f.Near == nil {
		err := q.Order(listingOrder(f.Sort)).Limit(limit).Offset(f.Offset).Find(&properties).Error
		return properties, translate(err)
	}

	box := f.Near.BoundingBox()
	q = q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
		box.Min.Lat(), box.Max.Lat(), box.Min.Lon(), box.Max.Lon())
	if err := q.Find(&properties).Error; err != nil {
		return nil, translate(err)
	}

	matched := properties[:0]
	for i := range properties {
		if f.IsPropertyAllowed(&properties[i]) {
			matched = append(matched, properties[i])
		}
	}
	models.SortProperties(matched, f.Sort)

	if f.Offset >= len(matched) {
		return []models.Property{}, nil
	}
	end := min(f.Offset+limit, len(matched))
	return matched[f.Offset:end], nil
}

// UpdatePropertyStatus moves a listing along its lifecycle. Publishing
// requires the listing to be compliant.
func (d *Database) UpdatePropertyStatus(ctx context.Context, id uint, to models.PropertyStatus) (*models.Property, error) {
	var p models.Property
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Photos").First(&p, id).Error; err != nil {
			return err
		}
		if !p.Status.CanTransition(to) {
			return &TransitionError{Entity: "property", From: string(p.Status), To: string(to)}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"status": to}
		switch to {
		case models.PropertyActive:
			if issues := p.ComplianceIssues(); len(issues) > 0 {
				return &ComplianceError{Issues: issues}
			}
			updates["published_at"] = now
			p.PublishedAt = &now
		case models.PropertySold:
			updates["sold_at"] = now
			p.SoldAt = &now
		}
		p.Status = to
		return tx.Model(&models.Property{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// AddPhoto appends a photo after the existing ones.
func (d *Database) AddPhoto(ctx context.Context, photo *models.Photo) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Photo{}).Where("property_id = ?", photo.PropertyID).Count(&count).Error; err != nil {
			return err
		}
		photo.Position = int(count)
		return tx.Create(photo).Error
	})
	return translate(err)
}

func (d *Database) GetPropertyPhotos(ctx context.Context, propertyID uint) ([]models.Photo, error) {
	var photos []models.Photo
	err := d.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("position ASC, id ASC").
		Find(&photos).Error
	return photos, translate(err)
}

type statusAggregate struct {
	Status      models.PropertyStatus
	Count       int
	AvgPrice    float64
	PricePerSqm float64
}

// GetPropertyStats summarizes the listings matching the owner filter.
func (d *Database) GetPropertyStats(ctx context.Context, sellerID, ambassadorID *uint) (models.PropertyStats, error) {
	q := d.db.WithContext(ctx).Model(&models.Property{}).
		Select(`status,
			COUNT(*) AS count,
			COALESCE(AVG(price), 0) AS avg_price,
			COALESCE(AVG(price / NULLIF(surface, 0)), 0) AS price_per_sqm`).
		Group("status")
	if sellerID != nil {
		q = q.Where("seller_id = ?", *sellerID)
	}
	if ambassadorID != nil {
		q = q.Where("ambassador_id = ?", *ambassadorID)
	}

	var rows []statusAggregate
	if err := q.Scan(&rows).Error; err != nil {
		return models.PropertyStats{}, translate(err)
	}

	var stats models.PropertyStats
	var priceSum, sqmSum float64
	for _, r := range rows {
		stats.TotalProperties += r.Count
		priceSum += r.AvgPrice * float64(r.Count)
		sqmSum += r.PricePerSqm * float64(r.Count)
		switch r.Status {
		case models.PropertyDraft:
			stats.TotalDraft = r.Count
		case models.PropertyActive:
			stats.TotalActive = r.Count
		case models.PropertySold:
			stats.TotalSold = r.Count
		}
	}
	if stats.TotalProperties > 0 {
		stats.AveragePrice = priceSum / float64(stats.TotalProperties)
		stats.PricePerSqm = sqmSum / float64(stats.TotalProperties)
	}
	return stats, nil
}

// ComparablePricePerSqm averages the price per m² of published or sold
// listings of the same type in the postal code. It returns the number of
// comparables used.
func (d *Database) ComparablePricePerSqm(ctx context.Context, postalCode string, propertyType models.PropertyType) (float64, int, error) {
	var result struct {
		Count       int
		PricePerSqm float64
	}
	err := d.db.WithContext(ctx).Model(&models.Property{}).
		Select("COUNT(*) AS count, COALESCE(AVG(price / surface), 0) AS price_per_sqm").
		Where("postal_code = ? AND property_type = ?", strings.TrimSpace(postalCode), propertyType).
		Where("status IN ?", []models.PropertyStatus{models.PropertyActive, models.PropertySold}).
		Where("surface > 0 AND price > 0").
		Scan(&result).Error
	if err != nil {
		return 0, 0, translate(err)
	}
	return result.PricePerSqm, result.Count, nil
}

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error)
}

// UpdateMissingCoordinates geocodes listings without coordinates in batches.
// Every listing is attempted once, whether geocoding succeeds or not.
func (d *Database) UpdateMissingCoordinates(ctx context.Context, geocoder Geocoder) (int, int, error) {
	var updated, failed int
	batchSize := 10

	for {
		if err := ctx.Err(); err != nil {
			return updated, failed, err
		}

		var batch []models.Property
		err := d.db.WithContext(ctx).
			Where("(latitude IS NULL OR longitude IS NULL) AND geocoding_done = ?", false).
			Where("address <> '' AND city <> ''").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return updated, failed, fmt.Errorf("failed to query properties: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, p := range batch {
			updates := map[string]interface{}{"geocoding_done": true}
			lat, lon, err := geocoder.GeocodeAddress(ctx, p.Address, p.PostalCode, p.City)
			if err != nil {
				d.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode property")
				failed++
			} else {
				updates["latitude"] = lat
				updates["longitude"] = lon
				updated++
			}
			if err := d.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
				return updated, failed, fmt.Errorf("failed to store coordinates: %w", err)
			}
		}
	}

	if updated+failed > 0 {
		d.logger.WithFields(logrus.Fields{
			"updated": updated,
			"failed":  failed,
		}).Info("Finished geocoding properties")
	}
	return updated, failed, nil
}
