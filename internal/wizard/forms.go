package wizard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"loopimmo/server/internal/models"
)

// FieldError reports a field whose value could not be interpreted.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

func (v Values) text(field string) string {
	return strings.TrimSpace(v[field])
}

func (v Values) number(field string) (float64, error) {
	raw := strings.ReplaceAll(v.text(field), ",", ".")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &FieldError{Field: field, Reason: "not a number"}
	}
	if f < 0 {
		return 0, &FieldError{Field: field, Reason: "must not be negative"}
	}
	return f, nil
}

func (v Values) integer(field string) (int, error) {
	n, err := strconv.Atoi(v.text(field))
	if err != nil {
		return 0, &FieldError{Field: field, Reason: "not an integer"}
	}
	if n < 0 {
		return 0, &FieldError{Field: field, Reason: "must not be negative"}
	}
	return n, nil
}

func (v Values) propertyType(field string) (models.PropertyType, error) {
	t := models.PropertyType(strings.ToLower(v.text(field)))
	if !t.Valid() {
		return "", &FieldError{Field: field, Reason: "unknown property type"}
	}
	return t, nil
}

// maxSurface bounds the surface of an estimated property, in m².
const maxSurface = 100000

type Condition string

const (
	ConditionToRenovate Condition = "to_renovate"
	ConditionGood       Condition = "good"
	ConditionRenovated  Condition = "renovated"
	ConditionNew        Condition = "new"
)

// Factor adjusts a market price per m² to the property's condition.
func (c Condition) Factor() float64 {
	switch c {
	case ConditionToRenovate:
		return 0.85
	case ConditionRenovated:
		return 1.08
	case ConditionNew:
		return 1.15
	default:
		return 1
	}
}

// EstimationRequest is the parsed estimation wizard.
type EstimationRequest struct {
	PropertyType models.PropertyType `json:"property_type"`
	Address      string              `json:"address"`
	PostalCode   string              `json:"postal_code"`
	City         string              `json:"city"`
	Surface      float64             `json:"surface"`
	Rooms        int                 `json:"rooms"`
	Condition    Condition           `json:"condition"`
	FirstName    string              `json:"first_name"`
	LastName     string              `json:"last_name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
}

func ParseEstimation(v Values) (EstimationRequest, error) {
	var (
		req EstimationRequest
		err error
	)
	if req.PropertyType, err = v.propertyType("property_type"); err != nil {
		return req, err
	}
	if req.Surface, err = v.number("surface"); err != nil {
		return req, err
	}
	if req.Surface == 0 {
		return req, &FieldError{Field: "surface", Reason: "must be positive"}
	}
	if req.Surface > maxSurface {
		return req, &FieldError{Field: "surface", Reason: "is too large"}
	}
	if req.Rooms, err = v.integer("rooms"); err != nil {
		return req, err
	}
	req.Condition = Condition(v.text("condition"))
	switch req.Condition {
	case ConditionToRenovate, ConditionGood, ConditionRenovated, ConditionNew:
	default:
		return req, &FieldError{Field: "condition", Reason: "unknown condition"}
	}
	req.Address = v.text("address")
	req.PostalCode = v.text("postal_code")
	req.City = v.text("city")
	req.FirstName = v.text("first_name")
	req.LastName = v.text("last_name")
	req.Email = strings.ToLower(v.text("email"))
	req.Phone = v.text("phone")
	return req, nil
}

func ParseApplication(v Values) (models.AmbassadorApplication, error) {
	app := models.AmbassadorApplication{
		FirstName:          v.text("first_name"),
		LastName:           v.text("last_name"),
		Email:              strings.ToLower(v.text("email")),
		Phone:              v.text("phone"),
		ProfessionalStatus: v.text("professional_status"),
		Siret:              strings.ReplaceAll(v.text("siret"), " ", ""),
		City:               v.text("city"),
		PostalCode:         v.text("postal_code"),
		Motivation:         v.text("motivation"),
		Status:             models.ApplicationPending,
	}
	years, err := v.integer("experience_years")
	if err != nil {
		return app, err
	}
	app.ExperienceYears = years
	if app.Siret != "" && len(app.Siret) != 14 {
		return app, &FieldError{Field: "siret", Reason: "must have 14 digits"}
	}
	return app, nil
}

// ParseProposal builds a draft listing from the propose-property wizard.
func ParseProposal(v Values) (models.Property, error) {
	var (
		p   models.Property
		err error
	)
	if p.PropertyType, err = v.propertyType("property_type"); err != nil {
		return p, err
	}
	if p.Surface, err = v.number("surface"); err != nil {
		return p, err
	}
	if p.Rooms, err = v.integer("rooms"); err != nil {
		return p, err
	}
	if p.Bedrooms, err = v.integer("bedrooms"); err != nil {
		return p, err
	}
	if p.Bathrooms, err = v.integer("bathrooms"); err != nil {
		return p, err
	}
	if p.Price, err = v.integer("price"); err != nil {
		return p, err
	}
	if p.EnergyClass, err = models.NormalizeEnergyClass(v.text("energy_class")); err != nil {
		return p, &FieldError{Field: "energy_class", Reason: "must be a letter from A to G"}
	}
	if v.text("carrez_surface") != "" {
		carrez, err := v.number("carrez_surface")
		if err != nil {
			return p, err
		}
		p.CarrezSurface = &carrez
	}
	p.Title = v.text("title")
	p.Description = v.text("description")
	p.Address = v.text("address")
	p.PostalCode = v.text("postal_code")
	p.City = v.text("city")
	p.Status = models.PropertyDraft
	return p, nil
}
