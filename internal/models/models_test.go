package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestStatusTransitions(t *testing.T) {
	t.Run("property", func(t *testing.T) {
		assert.True(t, PropertyDraft.CanTransition(PropertyActive))
		assert.True(t, PropertyActive.CanTransition(PropertySold))
		assert.True(t, PropertyActive.CanTransition(PropertyDraft))
		assert.False(t, PropertyDraft.CanTransition(PropertySold))
		assert.False(t, PropertySold.CanTransition(PropertyActive))
	})

	t.Run("lead", func(t *testing.T) {
		assert.True(t, LeadLost.CanTransition(LeadContacted))
		assert.False(t, LeadNew.CanTransition(LeadConverted))
		assert.False(t, LeadConverted.CanTransition(LeadLost))
		assert.Equal(t, []LeadStatus{LeadQualified, LeadLost}, LeadContacted.Next())
		assert.Empty(t, LeadConverted.Next())
	})

	t.Run("commission", func(t *testing.T) {
		assert.True(t, CommissionPending.CanTransition(CommissionValidated))
		assert.False(t, CommissionPending.CanTransition(CommissionPaid))
		assert.False(t, CommissionPaid.CanTransition(CommissionPending))
	})

	t.Run("contract", func(t *testing.T) {
		assert.True(t, ContractDraft.CanTransition(ContractPendingSignature))
		assert.True(t, ContractPendingSignature.CanTransition(ContractCancelled))
		assert.False(t, ContractSigned.CanTransition(ContractCancelled))
	})

	t.Run("visit", func(t *testing.T) {
		assert.True(t, VisitScheduled.CanTransition(VisitConfirmed))
		assert.False(t, VisitScheduled.CanTransition(VisitCompleted))
		assert.False(t, VisitCompleted.CanTransition(VisitCancelled))
		assert.True(t, VisitConfirmed.Upcoming())
		assert.False(t, VisitNoShow.Upcoming())
	})

	t.Run("application", func(t *testing.T) {
		assert.True(t, ApplicationPending.CanTransition(ApplicationRejected))
		assert.False(t, ApplicationApproved.CanTransition(ApplicationRejected))
	})
}

func TestComplianceIssues(t *testing.T) {
	p := &Property{PropertyType: TypeApartment}
	assert.Len(t, p.ComplianceIssues(), 5)

	p.Price = 250000
	p.Surface = 60
	p.EnergyClass = "c"
	p.CarrezSurface = ptr(58.2)
	p.Photos = []Photo{{StorageKey: "front.jpg"}}
	assert.Empty(t, p.ComplianceIssues())

	house := &Property{PropertyType: TypeHouse, Price: 400000, Surface: 120, EnergyClass: "B", Photos: p.Photos}
	assert.Empty(t, house.ComplianceIssues(), "Carrez only applies to apartments")

	house.EnergyClass = "H"
	assert.Equal(t, []string{"DPE energy class is missing"}, house.ComplianceIssues())
}

func TestNormalizeEnergyClass(t *testing.T) {
	class, err := NormalizeEnergyClass(" d ")
	assert.NoError(t, err)
	assert.Equal(t, "D", class)

	class, err = NormalizeEnergyClass("")
	assert.NoError(t, err)
	assert.Empty(t, class)

	_, err = NormalizeEnergyClass("AB")
	assert.Error(t, err)
}

func TestPricePerSqm(t *testing.T) {
	assert.Equal(t, 4000.0, (&Property{Price: 200000, Surface: 50}).PricePerSqm())
	assert.Zero(t, (&Property{Price: 200000}).PricePerSqm())
}

func TestIsPropertyAllowed(t *testing.T) {
	lyon := &Property{
		Status:       PropertyActive,
		PropertyType: TypeApartment,
		Price:        300000,
		Surface:      75,
		Rooms:        3,
		Latitude:     ptr(45.7640),
		Longitude:    ptr(4.8357),
	}

	tests := []struct {
		name   string
		filter *ListingFilter
		want   bool
	}{
		{"nil filter", nil, true},
		{"empty filter", &ListingFilter{}, true},
		{"status mismatch", &ListingFilter{Status: PropertySold}, false},
		{"type mismatch", &ListingFilter{PropertyType: TypeHouse}, false},
		{"under min price", &ListingFilter{MinPrice: ptr(350000)}, false},
		{"over max price", &ListingFilter{MaxPrice: ptr(250000)}, false},
		{"price in range", &ListingFilter{MinPrice: ptr(250000), MaxPrice: ptr(300000)}, true},
		{"too small", &ListingFilter{MinSurface: ptr(80.0)}, false},
		{"too few rooms", &ListingFilter{MinRooms: ptr(4)}, false},
		{"within radius", &ListingFilter{Near: &Near{Latitude: 45.75, Longitude: 4.85, RadiusKm: 5}}, true},
		{"outside radius", &ListingFilter{Near: &Near{Latitude: 48.8566, Longitude: 2.3522, RadiusKm: 50}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.IsPropertyAllowed(lyon))
		})
	}

	noCoords := &Property{Status: PropertyActive}
	assert.False(t, (&ListingFilter{Near: &Near{RadiusKm: 1000}}).IsPropertyAllowed(noCoords))
}

func TestDistanceAndBoundingBox(t *testing.T) {
	// Lyon to Paris is roughly 392 km
	assert.InDelta(t, 392, DistanceKm(45.7640, 4.8357, 48.8566, 2.3522), 5)

	near := &Near{Latitude: 45.7640, Longitude: 4.8357, RadiusKm: 10}
	box := near.BoundingBox()
	assert.True(t, box.Min.Lat() < near.Latitude && near.Latitude < box.Max.Lat())
	assert.True(t, box.Min.Lon() < near.Longitude && near.Longitude < box.Max.Lon())
	assert.InDelta(t, 10, DistanceKm(near.Latitude, near.Longitude, box.Max.Lat(), near.Longitude), 0.5)
}

func TestSortProperties(t *testing.T) {
	now := time.Now()
	props := []Property{
		{ID: 1, Price: 300, Surface: 40, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, Price: 100, Surface: 90, CreatedAt: now},
		{ID: 3, Price: 200, Surface: 60, CreatedAt: now.Add(-time.Hour)},
	}
	ids := func() []uint {
		var out []uint
		for _, p := range props {
			out = append(out, p.ID)
		}
		return out
	}

	SortProperties(props, SortPriceAsc)
	assert.Equal(t, []uint{2, 3, 1}, ids())
	SortProperties(props, SortPriceDesc)
	assert.Equal(t, []uint{1, 3, 2}, ids())
	SortProperties(props, SortSurfaceDesc)
	assert.Equal(t, []uint{2, 3, 1}, ids())
	SortProperties(props, SortNewest)
	assert.Equal(t, []uint{2, 3, 1}, ids())
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]Commission{
		{Amount: 100, Status: CommissionPending},
		{Amount: 250.5, Status: CommissionValidated},
		{Amount: 49.5, Status: CommissionPaid},
		{Amount: 50, Status: CommissionPaid},
	})
	assert.Equal(t, 4, summary.Count)
	assert.InDelta(t, 450, summary.Total, 1e-9)
	assert.InDelta(t, 100, summary.Pending, 1e-9)
	assert.InDelta(t, 250.5, summary.Validated, 1e-9)
	assert.InDelta(t, 99.5, summary.Paid, 1e-9)

	assert.Equal(t, CommissionSummary{}, Summarize(nil))
}

func TestContractSignatures(t *testing.T) {
	c := &Contract{Signatories: []Signatory{
		{UserID: ptr(uint(1)), Signed: true},
		{UserID: ptr(uint(2))},
	}}
	assert.False(t, c.FullySigned())
	assert.True(t, c.Involves(2))
	assert.False(t, c.Involves(3))

	c.Signatories[1].Signed = true
	assert.True(t, c.FullySigned())
	assert.False(t, (&Contract{}).FullySigned())
}

func TestPrincipal(t *testing.T) {
	p := Principal{UserID: 3, Role: RoleAmbassador}
	assert.True(t, p.Is(RoleSeller, RoleAmbassador))
	assert.False(t, p.Is(RoleTrustManager))
	assert.False(t, Role("admin").Valid())
}
