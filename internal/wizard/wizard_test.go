package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopimmo/server/internal/models"
)

func estimationValues() Values {
	return Values{
		"property_type": "apartment",
		"address":       "12 rue des Lilas",
		"postal_code":   "69003",
		"city":          "Lyon",
		"surface":       "64",
		"rooms":         "3",
		"condition":     "good",
		"first_name":    "Camille",
		"last_name":     "Martin",
		"email":         "Camille.Martin@example.fr",
		"phone":         "0601020304",
	}
}

func onboardingValues() Values {
	return Values{
		"first_name":          "Sacha",
		"last_name":           "Durand",
		"email":               "sacha@example.fr",
		"phone":               "0611223344",
		"professional_status": "independent",
		"siret":               "732 829 320 00074",
		"city":                "Nantes",
		"postal_code":         "44000",
		"experience_years":    "4",
		"motivation":          "Know the neighbourhood",
		"accept_charter":      "true",
		"accept_terms":        "true",
	}
}

func proposalValues() Values {
	return Values{
		"property_type":  "apartment",
		"address":        "4 place Bellecour",
		"postal_code":    "69002",
		"city":           "Lyon",
		"surface":        "82.5",
		"carrez_surface": "80,2",
		"rooms":          "4",
		"bedrooms":       "2",
		"bathrooms":      "1",
		"energy_class":   "c",
		"title":          "Bright flat on Bellecour",
		"price":          "420000",
	}
}

func without(v Values, field string) Values {
	out := Values{}
	for k, val := range v {
		if k != field {
			out[k] = val
		}
	}
	return out
}

func assertStepValidity(t *testing.T, def *Definition, full Values) {
	t.Helper()
	for i, step := range def.Steps {
		n := i + 1
		assert.True(t, def.IsStepValid(n, full), "%s step %d should be valid", def.Name, n)

		for _, field := range append(append([]string{}, step.Required...), step.Accept...) {
			assert.False(t, def.IsStepValid(n, without(full, field)), "%s step %d without %s", def.Name, n, field)

			blank := without(full, field)
			blank[field] = "   "
			assert.False(t, def.IsStepValid(n, blank), "%s step %d with blank %s", def.Name, n, field)
		}
	}
}

func TestEstimationStepValidity(t *testing.T) {
	require.Equal(t, 4, Estimation.Total())
	assertStepValidity(t, &Estimation, estimationValues())
}

func TestOnboardingStepValidity(t *testing.T) {
	require.Equal(t, 5, Onboarding.Total())
	assertStepValidity(t, &Onboarding, onboardingValues())

	unticked := onboardingValues()
	unticked["accept_terms"] = "false"
	assert.False(t, Onboarding.IsStepValid(5, unticked))
}

func TestProposePropertyStepValidity(t *testing.T) {
	assertStepValidity(t, &ProposeProperty, proposalValues())
}

func TestIsStepValidOutOfRange(t *testing.T) {
	assert.False(t, Estimation.IsStepValid(0, estimationValues()))
	assert.False(t, Estimation.IsStepValid(5, estimationValues()))

	_, err := Estimation.Step(9)
	assert.ErrorIs(t, err, ErrStepOutOfRange)
}

func TestSessionNavigation(t *testing.T) {
	values := estimationValues()
	s := Estimation.Start(values)
	assert.Equal(t, 1, s.Step())

	s.Back()
	assert.Equal(t, 1, s.Step(), "back never goes below the first step")

	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.Equal(t, 3, s.Step())

	s.Back()
	assert.Equal(t, 2, s.Step())

	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.Equal(t, 4, s.Step())
	assert.False(t, s.Done())

	require.NoError(t, s.Next())
	assert.True(t, s.Done())
	assert.Equal(t, 4, s.Step(), "step stays bounded once the result is reached")
	assert.ErrorIs(t, s.Next(), ErrAlreadySubmitted)
}

func TestSessionBlocksOnIncompleteStep(t *testing.T) {
	s := Estimation.Start(without(estimationValues(), "rooms"))
	require.NoError(t, s.Next())

	err := s.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 2, stepErr.Step)
	assert.Equal(t, "characteristics", stepErr.Name)
	assert.Equal(t, []string{"rooms"}, stepErr.Missing)
	assert.Equal(t, 2, s.Step())
}

func TestSessionComplete(t *testing.T) {
	s := Onboarding.Start(onboardingValues())
	require.NoError(t, s.Complete())
	assert.True(t, s.Done())

	s = Onboarding.Start(without(onboardingValues(), "accept_charter"))
	err := s.Complete()
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 5, stepErr.Step)
}

func TestLookup(t *testing.T) {
	d, err := Lookup("onboarding")
	require.NoError(t, err)
	assert.Equal(t, &Onboarding, d)

	_, err = Lookup("checkout")
	assert.ErrorIs(t, err, ErrUnknownWizard)
}

func TestParseEstimation(t *testing.T) {
	req, err := ParseEstimation(estimationValues())
	require.NoError(t, err)
	assert.Equal(t, models.TypeApartment, req.PropertyType)
	assert.Equal(t, 64.0, req.Surface)
	assert.Equal(t, 3, req.Rooms)
	assert.Equal(t, "camille.martin@example.fr", req.Email)

	bad := estimationValues()
	bad["surface"] = "sixty"
	_, err = ParseEstimation(bad)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "surface", fieldErr.Field)

	for _, surface := range []string{"NaN", "Inf", "-Inf", "1e400", "1e9"} {
		bad = estimationValues()
		bad["surface"] = surface
		_, err = ParseEstimation(bad)
		require.ErrorAs(t, err, &fieldErr, surface)
		assert.Equal(t, "surface", fieldErr.Field)
	}

	bad = estimationValues()
	bad["condition"] = "haunted"
	_, err = ParseEstimation(bad)
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "condition", fieldErr.Field)
}

func TestParseApplication(t *testing.T) {
	app, err := ParseApplication(onboardingValues())
	require.NoError(t, err)
	assert.Equal(t, "73282932000074", app.Siret)
	assert.Equal(t, 4, app.ExperienceYears)
	assert.Equal(t, models.ApplicationPending, app.Status)

	bad := onboardingValues()
	bad["siret"] = "123"
	_, err = ParseApplication(bad)
	assert.Error(t, err)
}

func TestParseProposal(t *testing.T) {
	p, err := ParseProposal(proposalValues())
	require.NoError(t, err)
	assert.Equal(t, models.PropertyDraft, p.Status)
	assert.Equal(t, 420000, p.Price)
	assert.Equal(t, 82.5, p.Surface)
	assert.Equal(t, "C", p.EnergyClass)
	require.NotNil(t, p.CarrezSurface)
	assert.Equal(t, 80.2, *p.CarrezSurface)

	bad := proposalValues()
	bad["energy_class"] = "Z"
	_, err = ParseProposal(bad)
	assert.Error(t, err)

	bad = proposalValues()
	bad["price"] = "-5"
	_, err = ParseProposal(bad)
	assert.Error(t, err)

	for _, field := range []string{"surface", "carrez_surface"} {
		for _, raw := range []string{"NaN", "+Inf", "1e400"} {
			bad = proposalValues()
			bad[field] = raw
			_, err = ParseProposal(bad)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr, "%s=%s", field, raw)
			assert.Equal(t, field, fieldErr.Field)
		}
	}
}

func TestConditionFactor(t *testing.T) {
	assert.Less(t, ConditionToRenovate.Factor(), ConditionGood.Factor())
	assert.Greater(t, ConditionNew.Factor(), ConditionRenovated.Factor())
	assert.Equal(t, 1.0, ConditionGood.Factor())
}
