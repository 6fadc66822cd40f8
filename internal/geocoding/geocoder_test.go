package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNominatim(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "fr", r.URL.Query().Get("countrycodes"))
		assert.Contains(t, r.URL.Query().Get("q"), "France")
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeocodeAddress(t *testing.T) {
	var hits int32
	server := newNominatim(t, `[{"lat":"45.7675","lon":"4.8335"}]`, &hits)
	dir := t.TempDir()

	g := NewGeocoder(logrus.New(), Options{Endpoint: server.URL, CacheDir: dir, Interval: time.Millisecond})

	lat, lon, err := g.GeocodeAddress(context.Background(), "3 quai Saint-Vincent", "69001", "Lyon")
	require.NoError(t, err)
	assert.Equal(t, 45.7675, lat)
	assert.Equal(t, 4.8335, lon)

	// same address, different spacing and case: served from the cache
	_, _, err = g.GeocodeAddress(context.Background(), " 3 Quai Saint-Vincent", "69001", "LYON ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// a new geocoder reloads the disk cache
	reloaded := NewGeocoder(logrus.New(), Options{Endpoint: server.URL, CacheDir: dir, Interval: time.Millisecond})
	lat, _, err = reloaded.GeocodeAddress(context.Background(), "3 quai Saint-Vincent", "69001", "Lyon")
	require.NoError(t, err)
	assert.Equal(t, 45.7675, lat)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGeocodeAddressNoResult(t *testing.T) {
	var hits int32
	server := newNominatim(t, `[]`, &hits)
	g := NewGeocoder(logrus.New(), Options{Endpoint: server.URL, Interval: time.Millisecond})

	_, _, err := g.GeocodeAddress(context.Background(), "nowhere", "00000", "Nulle part")
	assert.ErrorContains(t, err, "no results found")
}

func TestGeocodeAddressBadCoordinates(t *testing.T) {
	var hits int32
	server := newNominatim(t, `[{"lat":"north","lon":"4.8"}]`, &hits)
	g := NewGeocoder(logrus.New(), Options{Endpoint: server.URL, Interval: time.Millisecond})

	_, _, err := g.GeocodeAddress(context.Background(), "1 rue", "75001", "Paris")
	assert.ErrorContains(t, err, "invalid latitude")
}

func TestGeocodeAddressUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	g := NewGeocoder(logrus.New(), Options{Endpoint: server.URL, Interval: time.Millisecond})

	_, _, err := g.GeocodeAddress(context.Background(), "1 rue", "75001", "Paris")
	assert.ErrorContains(t, err, "status 429")
}

func TestGeocodeAddressHonoursContext(t *testing.T) {
	var hits int32
	server := newNominatim(t, `[{"lat":"1","lon":"2"}]`, &hits)
	g := NewGeocoder(logrus.New(), Options{Endpoint: server.URL, Interval: time.Hour})

	_, _, err := g.GeocodeAddress(context.Background(), "a", "1", "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = g.GeocodeAddress(ctx, "b", "2", "y")
	assert.Error(t, err, "the limiter refuses to wait past the deadline")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
