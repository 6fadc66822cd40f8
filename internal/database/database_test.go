package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loopimmo/server/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := NewDatabase("sqlite", filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func sampleProperty(sellerID uint) *models.Property {
	return &models.Property{
		Title:         "Flat near the Saône",
		PropertyType:  models.TypeApartment,
		Address:       "3 quai Saint-Vincent",
		PostalCode:    "69001",
		City:          "Lyon",
		Price:         320000,
		Surface:       70,
		CarrezSurface: ptr(68.5),
		Rooms:         3,
		Bedrooms:      2,
		Bathrooms:     1,
		EnergyClass:   "D",
		SellerID:      sellerID,
	}
}

func publish(t *testing.T, db *Database, p *models.Property) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.AddPhoto(ctx, &models.Photo{PropertyID: p.ID, StorageKey: "k", URL: "u"}))
	_, err := db.UpdatePropertyStatus(ctx, p.ID, models.PropertyActive)
	require.NoError(t, err)
}

func TestCreateAndGetProperty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := sampleProperty(7)
	p.Status = models.PropertySold
	require.NoError(t, db.CreateProperty(ctx, p))
	assert.NotZero(t, p.ID)
	assert.Len(t, p.Reference, 36)
	assert.Equal(t, models.PropertyDraft, p.Status, "new listings always start as drafts")

	got, err := db.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lyon", got.City)
	assert.Equal(t, 68.5, *got.CarrezSurface)

	_, err = db.GetProperty(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePropertyStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := sampleProperty(1)
	require.NoError(t, db.CreateProperty(ctx, p))

	_, err := db.UpdatePropertyStatus(ctx, p.ID, models.PropertyActive)
	var compliance *ComplianceError
	require.ErrorAs(t, err, &compliance)
	assert.ErrorIs(t, err, ErrNotCompliant)
	assert.Contains(t, compliance.Issues, "at least one photo is required")

	require.NoError(t, db.AddPhoto(ctx, &models.Photo{PropertyID: p.ID, StorageKey: "a.jpg"}))
	require.NoError(t, db.AddPhoto(ctx, &models.Photo{PropertyID: p.ID, StorageKey: "b.jpg"}))

	active, err := db.UpdatePropertyStatus(ctx, p.ID, models.PropertyActive)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyActive, active.Status)
	assert.NotNil(t, active.PublishedAt)

	_, err = db.UpdatePropertyStatus(ctx, p.ID, models.PropertyActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	sold, err := db.UpdatePropertyStatus(ctx, p.ID, models.PropertySold)
	require.NoError(t, err)
	assert.NotNil(t, sold.SoldAt)

	_, err = db.UpdatePropertyStatus(ctx, p.ID, models.PropertyDraft)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	photos, err := db.GetPropertyPhotos(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, 0, photos[0].Position)
	assert.Equal(t, 1, photos[1].Position)
}

func TestGetAllPropertiesFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cheap := sampleProperty(1)
	cheap.Price = 180000
	cheap.Latitude, cheap.Longitude = ptr(45.7640), ptr(4.8357)
	require.NoError(t, db.CreateProperty(ctx, cheap))
	publish(t, db, cheap)

	pricey := sampleProperty(1)
	pricey.Price = 650000
	pricey.Rooms = 5
	pricey.Latitude, pricey.Longitude = ptr(45.7700), ptr(4.8500)
	require.NoError(t, db.CreateProperty(ctx, pricey))
	publish(t, db, pricey)

	paris := sampleProperty(2)
	paris.City = "Paris"
	paris.PostalCode = "75011"
	paris.Latitude, paris.Longitude = ptr(48.8566), ptr(2.3522)
	require.NoError(t, db.CreateProperty(ctx, paris))
	publish(t, db, paris)

	draft := sampleProperty(1)
	require.NoError(t, db.CreateProperty(ctx, draft))

	all, err := db.GetAllProperties(ctx, models.ListingFilter{Status: models.PropertyActive})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	lyon, err := db.GetAllProperties(ctx, models.ListingFilter{Status: models.PropertyActive, City: "lyon", Sort: models.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, lyon, 2)
	assert.Equal(t, cheap.ID, lyon[0].ID)
	assert.NotEmpty(t, lyon[0].Photos)

	bounded, err := db.GetAllProperties(ctx, models.ListingFilter{Status: models.PropertyActive, MaxPrice: ptr(400000), MinRooms: ptr(3)})
	require.NoError(t, err)
	assert.Len(t, bounded, 2)

	byPostal, err := db.GetAllProperties(ctx, models.ListingFilter{PostalCode: "75"})
	require.NoError(t, err)
	require.Len(t, byPostal, 1)
	assert.Equal(t, paris.ID, byPostal[0].ID)

	near, err := db.GetAllProperties(ctx, models.ListingFilter{
		Status: models.PropertyActive,
		Near:   &models.Near{Latitude: 45.7640, Longitude: 4.8357, RadiusKm: 5},
		Sort:   models.SortPriceDesc,
	})
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, pricey.ID, near[0].ID)

	page, err := db.GetAllProperties(ctx, models.ListingFilter{
		Status: models.PropertyActive,
		Near:   &models.Near{Latitude: 45.7640, Longitude: 4.8357, RadiusKm: 5},
		Offset: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, page)

	mine, err := db.GetAllProperties(ctx, models.ListingFilter{SellerID: ptr(uint(1))})
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestPropertyStatsAndComparables(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := sampleProperty(3)
	a.Price, a.Surface = 300000, 100
	require.NoError(t, db.CreateProperty(ctx, a))
	publish(t, db, a)

	b := sampleProperty(3)
	b.Price, b.Surface = 200000, 50
	require.NoError(t, db.CreateProperty(ctx, b))
	publish(t, db, b)

	c := sampleProperty(3)
	require.NoError(t, db.CreateProperty(ctx, c))

	stats, err := db.GetPropertyStats(ctx, ptr(uint(3)), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProperties)
	assert.Equal(t, 2, stats.TotalActive)
	assert.Equal(t, 1, stats.TotalDraft)
	assert.InDelta(t, (300000.0+200000+320000)/3, stats.AveragePrice, 0.01)

	perSqm, count, err := db.ComparablePricePerSqm(ctx, "69001", models.TypeApartment)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 3500, perSqm, 0.01)

	_, count, err = db.ComparablePricePerSqm(ctx, "13001", models.TypeApartment)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLeadLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	lead := &models.Lead{ClientName: "Noa Petit", AmbassadorID: ptr(uint(4))}
	require.NoError(t, db.CreateLead(ctx, lead))
	assert.Equal(t, models.LeadNew, lead.Status)
	assert.Equal(t, models.UrgencyMedium, lead.Urgency)
	assert.Equal(t, models.FinancingUnknown, lead.FinancingStatus)

	_, err := db.UpdateLeadStatus(ctx, lead.ID, models.LeadConverted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, status := range []models.LeadStatus{models.LeadContacted, models.LeadQualified, models.LeadConverted} {
		updated, err := db.UpdateLeadStatus(ctx, lead.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	other := &models.Lead{ClientName: "Lou Bernard", AmbassadorID: ptr(uint(4))}
	require.NoError(t, db.CreateLead(ctx, other))
	require.NoError(t, db.CreateLead(ctx, &models.Lead{ClientName: "Elsewhere", AmbassadorID: ptr(uint(9))}))

	counts, err := db.CountLeadsByStatus(ctx, ptr(uint(4)))
	require.NoError(t, err)
	assert.Equal(t, map[models.LeadStatus]int{models.LeadConverted: 1, models.LeadNew: 1}, counts)

	leads, err := db.GetLeads(ctx, models.LeadFilter{AmbassadorID: ptr(uint(4)), Status: models.LeadNew})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Lou Bernard", leads[0].ClientName)
}

func TestCommissionLifecycleAndSummary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	amounts := []float64{1200.50, 800, 450.25}
	var ids []uint
	for _, amount := range amounts {
		c := &models.Commission{Type: models.CommissionDirectSale, Amount: amount, AmbassadorID: 4}
		require.NoError(t, db.CreateCommission(ctx, c))
		ids = append(ids, c.ID)
	}

	_, err := db.UpdateCommissionStatus(ctx, ids[0], models.CommissionPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	validated, err := db.UpdateCommissionStatus(ctx, ids[0], models.CommissionValidated)
	require.NoError(t, err)
	assert.NotNil(t, validated.ValidatedAt)

	paid, err := db.UpdateCommissionStatus(ctx, ids[0], models.CommissionPaid)
	require.NoError(t, err)
	assert.NotNil(t, paid.PaidAt)

	_, err = db.UpdateCommissionStatus(ctx, ids[1], models.CommissionValidated)
	require.NoError(t, err)

	list, err := db.GetCommissions(ctx, models.CommissionFilter{AmbassadorID: ptr(uint(4))})
	require.NoError(t, err)
	summary := models.Summarize(list)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 2450.75, summary.Total, 0.001)
	assert.InDelta(t, summary.Pending+summary.Validated+summary.Paid, summary.Total, 0.001)
	assert.InDelta(t, 1200.50, summary.Paid, 0.001)
	assert.InDelta(t, 800, summary.Validated, 0.001)
}

func TestContractSigning(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contract := &models.Contract{
		Type:       models.ContractMandate,
		PropertyID: 1,
		CreatedBy:  4,
		Signatories: []models.Signatory{
			{Name: "Seller", UserID: ptr(uint(1)), Role: models.RoleSeller, Signed: true},
		},
	}
	require.NoError(t, db.CreateContract(ctx, contract))
	assert.False(t, contract.Signatories[0].Signed, "signatures cannot be preset")

	_, err := db.SendContract(ctx, contract.ID)
	assert.ErrorIs(t, err, ErrInvalidContract)

	require.NoError(t, db.GetDB().Create(&models.Signatory{ContractID: contract.ID, Name: "Platform", Role: models.RoleTrustManager}).Error)

	_, err = db.SignContract(ctx, contract.ID, contract.Signatories[0].ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "drafts cannot be signed")

	sent, err := db.SendContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractPendingSignature, sent.Status)
	require.Len(t, sent.Signatories, 2)

	first, err := db.SignContract(ctx, contract.ID, sent.Signatories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractPendingSignature, first.Status)

	_, err = db.SignContract(ctx, contract.ID, sent.Signatories[0].ID)
	assert.ErrorIs(t, err, ErrAlreadySigned)

	_, err = db.SignContract(ctx, contract.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	done, err := db.SignContract(ctx, contract.ID, sent.Signatories[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractSigned, done.Status)
	assert.NotNil(t, done.SignedAt)
	assert.True(t, done.FullySigned())

	_, err = db.CancelContract(ctx, contract.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	mine, err := db.GetContracts(ctx, models.ContractFilter{UserID: ptr(uint(1))})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := db.GetContracts(ctx, models.ContractFilter{UserID: ptr(uint(42))})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCountPendingContracts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	contract := &models.Contract{
		Type:       models.ContractPromise,
		PropertyID: 1,
		CreatedBy:  4,
		Signatories: []models.Signatory{
			{Name: "Buyer", UserID: ptr(uint(2))},
			{Name: "Seller", UserID: ptr(uint(1))},
		},
	}
	require.NoError(t, db.CreateContract(ctx, contract))
	_, err := db.SendContract(ctx, contract.ID)
	require.NoError(t, err)

	total, err := db.CountPendingContracts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	buyer, err := db.CountPendingContracts(ctx, ptr(uint(2)))
	require.NoError(t, err)
	assert.Equal(t, 1, buyer)

	stranger, err := db.CountPendingContracts(ctx, ptr(uint(77)))
	require.NoError(t, err)
	assert.Zero(t, stranger)

	cancelled, err := db.CancelContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractCancelled, cancelled.Status)
}

func TestVisitBookingAndReminders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seller := sampleProperty(5)
	require.NoError(t, db.CreateProperty(ctx, seller))

	now := time.Now().UTC().Truncate(time.Second)
	first := &models.Visit{PropertyID: seller.ID, BuyerID: 2, ScheduledAt: now.Add(3 * time.Hour), DurationMinutes: 45}
	require.NoError(t, db.CreateVisit(ctx, first))
	assert.Equal(t, models.VisitScheduled, first.Status)

	overlap := &models.Visit{PropertyID: seller.ID, BuyerID: 3, ScheduledAt: now.Add(3*time.Hour + 30*time.Minute)}
	assert.ErrorIs(t, db.CreateVisit(ctx, overlap), ErrConflict)

	later := &models.Visit{PropertyID: seller.ID, BuyerID: 3, ScheduledAt: now.Add(48 * time.Hour)}
	require.NoError(t, db.CreateVisit(ctx, later))
	assert.Equal(t, 30, later.DurationMinutes)

	due, err := db.DueReminders(ctx, now, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first.ID, due[0].ID)

	require.NoError(t, db.MarkReminded(ctx, []uint{first.ID}, now))
	due, err = db.DueReminders(ctx, now, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due)

	confirmed, err := db.UpdateVisitStatus(ctx, first.ID, models.VisitConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, models.VisitConfirmed, confirmed.Status)

	completed, err := db.UpdateVisitStatus(ctx, first.ID, models.VisitCompleted, "Loved the balcony")
	require.NoError(t, err)
	assert.Equal(t, "Loved the balcony", completed.Feedback)

	_, err = db.UpdateVisitStatus(ctx, first.ID, models.VisitCancelled, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	bySeller, err := db.GetVisits(ctx, models.VisitFilter{SellerID: ptr(uint(5))})
	require.NoError(t, err)
	assert.Len(t, bySeller, 2)

	upcoming, err := db.GetUpcomingVisits(ctx, models.VisitFilter{}, now, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, later.ID, upcoming[0].ID)
}

func TestApplications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	app := &models.AmbassadorApplication{FirstName: "Sacha", LastName: "Durand", Email: "sacha@example.fr"}
	require.NoError(t, db.CreateApplication(ctx, app))
	assert.Equal(t, models.ApplicationPending, app.Status)

	dup := &models.AmbassadorApplication{FirstName: "S", LastName: "D", Email: "sacha@example.fr"}
	assert.ErrorIs(t, db.CreateApplication(ctx, dup), ErrConflict)

	pending, err := db.CountApplications(ctx, models.ApplicationPending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	approved, err := db.DecideApplication(ctx, app.ID, models.ApplicationApproved, 9)
	require.NoError(t, err)
	assert.Equal(t, uint(9), *approved.DecidedBy)

	_, err = db.DecideApplication(ctx, app.ID, models.ApplicationRejected, 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	apps, err := db.GetApplications(ctx, models.ApplicationApproved)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestRecordAndGetActivity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	events := []*models.ActivityEvent{
		{Kind: models.EventLeadCreated, EntityType: "lead", EntityID: 1, Message: "new lead"},
		{Kind: models.EventLeadStatus, EntityType: "lead", EntityID: 1, Message: "contacted"},
		{Kind: models.EventVisitScheduled, EntityType: "visit", EntityID: 3, Message: "visit"},
	}
	require.NoError(t, db.RecordEvents(ctx, events))

	leadEvents, err := db.GetActivity(ctx, models.ActivityFilter{EntityType: "lead", EntityID: ptr(uint(1))})
	require.NoError(t, err)
	assert.Len(t, leadEvents, 2)

	limited, err := db.GetActivity(ctx, models.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) GeocodeAddress(ctx context.Context, street, postalCode, city string) (float64, float64, error) {
	args := m.Called(street, postalCode, city)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func TestUpdateMissingCoordinates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	found := sampleProperty(1)
	require.NoError(t, db.CreateProperty(ctx, found))

	lost := sampleProperty(1)
	lost.Address = "nowhere"
	require.NoError(t, db.CreateProperty(ctx, lost))

	geocoder := &mockGeocoder{}
	geocoder.On("GeocodeAddress", found.Address, "69001", "Lyon").Return(45.76, 4.83, nil).Once()
	geocoder.On("GeocodeAddress", "nowhere", "69001", "Lyon").Return(0.0, 0.0, errors.New("no results")).Once()

	updated, failed, err := db.UpdateMissingCoordinates(ctx, geocoder)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, failed)
	geocoder.AssertExpectations(t)

	got, err := db.GetProperty(ctx, found.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, 45.76, *got.Latitude)

	// every listing is attempted once
	updated, failed, err = db.UpdateMissingCoordinates(ctx, geocoder)
	require.NoError(t, err)
	assert.Zero(t, updated+failed)
}

func TestNewDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := NewDatabase("oracle", "dsn", nil)
	assert.Error(t, err)
}
