package wizard

const (
	EstimationName      = "estimation"
	OnboardingName      = "onboarding"
	ProposePropertyName = "propose-property"
)

// Estimation is the seller's free valuation request.
var Estimation = Definition{
	Name: EstimationName,
	Steps: []Step{
		{Name: "property", Required: []string{"property_type", "address", "postal_code", "city"}},
		{Name: "characteristics", Required: []string{"surface", "rooms"}},
		{Name: "condition", Required: []string{"condition"}},
		{Name: "contact", Required: []string{"first_name", "last_name", "email", "phone"}},
	},
}

// Onboarding is the ambassador recruitment form.
var Onboarding = Definition{
	Name: OnboardingName,
	Steps: []Step{
		{Name: "identity", Required: []string{"first_name", "last_name", "email", "phone"}},
		{Name: "status", Required: []string{"professional_status"}},
		{Name: "zone", Required: []string{"city", "postal_code"}},
		{Name: "experience", Required: []string{"experience_years", "motivation"}},
		{Name: "commitment", Accept: []string{"accept_charter", "accept_terms"}},
	},
}

// ProposeProperty creates a draft listing.
var ProposeProperty = Definition{
	Name: ProposePropertyName,
	Steps: []Step{
		{Name: "location", Required: []string{"property_type", "address", "postal_code", "city"}},
		{Name: "characteristics", Required: []string{"surface", "rooms", "bedrooms", "bathrooms"}},
		{Name: "diagnostics", Required: []string{"energy_class"}},
		{Name: "pricing", Required: []string{"title", "price"}},
	},
}

var registry = map[string]*Definition{
	EstimationName:      &Estimation,
	OnboardingName:      &Onboarding,
	ProposePropertyName: &ProposeProperty,
}

// Lookup finds a wizard by name.
func Lookup(name string) (*Definition, error) {
	d, ok := registry[name]
	if !ok {
		return nil, ErrUnknownWizard
	}
	return d, nil
}
