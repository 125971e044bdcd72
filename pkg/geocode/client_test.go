package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ruralmatch/internal/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at srv with rate limiting disabled.
func newTestClient(srv *httptest.Server, opts ...Option) Client {
	base := []Option{WithBaseURL(srv.URL), WithRateLimit(0), WithAPIKey("test-key")}
	return NewClient(append(base, opts...)...)
}

func TestGeocode_PlaceResult(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"place_results": {
				"title": "Fazenda Boa Vista",
				"address": "Estrada Municipal, Zona Rural, Uberaba - MG, 38000-000",
				"gps_coordinates": {"latitude": -19.7483, "longitude": -47.9319}
			}
		}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Geocode(context.Background(), "Zona Rural, Uberaba MG")
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)

	p := resp.Places[0]
	assert.Equal(t, "Fazenda Boa Vista", p.Title)
	assert.True(t, p.HasCoordinates())
	assert.InDelta(t, -19.7483, *p.Latitude, 0.0001)
	assert.InDelta(t, -47.9319, *p.Longitude, 0.0001)
	assert.NotEmpty(t, resp.Raw)
	assert.Equal(t, "Zona Rural, Uberaba MG", gotQuery)
	assert.Equal(t, "test-key", gotKey)
}

func TestGeocode_LocalResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{
			"local_results": [
				{"title": "Sítio Primavera", "address": "Goiânia, Goiás"},
				{"title": "Chácara Recanto", "address": "Goiânia - GO",
				 "gps_coordinates": {"latitude": -16.68, "longitude": -49.25}}
			]
		}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Geocode(context.Background(), "Goiânia")
	require.NoError(t, err)
	require.Len(t, resp.Places, 2)
	assert.False(t, resp.Places[0].HasCoordinates())
	assert.True(t, resp.Places[1].HasCoordinates())
}

func TestGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"error": "Google hasn't returned any results for this query."}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Geocode(context.Background(), "endereço inexistente")
	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Geocode(context.Background(), "Uberaba")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode")
}

func TestGeocode_RetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"local_results": []}`)
	}))
	defer srv.Close()

	retry := resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	resp, err := newTestClient(srv, WithRetry(retry)).Geocode(context.Background(), "Londrina")
	require.NoError(t, err)
	assert.Empty(t, resp.Places)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGeocode_NoRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Geocode(context.Background(), "Londrina")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGeocode_EmptyAddress(t *testing.T) {
	c := NewClient()
	_, err := c.Geocode(context.Background(), "")
	require.Error(t, err)
}

func TestGeocode_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Geocode(context.Background(), "Cuiabá")
	require.Error(t, err)
}
