package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioacc/marta-sign/internal/arrivals"
	"github.com/radioacc/marta-sign/internal/livecache"
	"github.com/radioacc/marta-sign/internal/metrics"
	"github.com/radioacc/marta-sign/internal/realtime/marta"
)

type stubProvider struct {
	board       []arrivals.Arrival
	lastStation string
}

func (s *stubProvider) Arrivals(ctx context.Context, station string) []arrivals.Arrival {
	s.lastStation = station
	return s.board
}

type stubCache struct {
	snap  livecache.Snapshot
	stats metrics.FetchSummary
}

func (s stubCache) Snapshot() livecache.Snapshot { return s.snap }
func (s stubCache) Stats() metrics.FetchSummary  { return s.stats }

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func newTestRouter(provider ArrivalsProvider, cache CacheStatus, store Pinger) http.Handler {
	return NewRouter(NewArrivalsHandler(provider), NewHealthHandler(cache, store), []string{"*"})
}

func TestGetArrivals(t *testing.T) {
	provider := &stubProvider{board: []arrivals.Arrival{{
		Station: "MIDTOWN STATION", Destination: "Airport", Line: "RED", Direction: "S",
		WaitingTime: "2 min", WaitingSeconds: 120, Status: arrivals.StatusRealtime,
	}}}
	router := newTestRouter(provider, stubCache{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/arrivals?station=Midtown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=15, stale-while-revalidate=10", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Midtown", provider.lastStation)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, map[string]interface{}{
		"station":         "MIDTOWN STATION",
		"destination":     "Airport",
		"line":            "RED",
		"direction":       "S",
		"waiting_time":    "2 min",
		"waiting_seconds": float64(120),
		"status":          "Realtime",
	}, body[0])
}

func TestGetArrivalsEmptyBoardIsArray(t *testing.T) {
	router := newTestRouter(&stubProvider{}, stubCache{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/arrivals", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetArrivalsEndToEndDegraded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(upstream.Close)

	client := marta.NewClient([]string{upstream.URL}, time.Second)
	cache := livecache.New(client.FetchArrivals)
	svc := arrivals.NewService(cache, arrivals.NewMerger(nil, 6), "MIDTOWN")
	router := newTestRouter(svc, cache, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/arrivals?station=MIDTOWN", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetHealth(t *testing.T) {
	fetchedAt := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	cache := stubCache{
		snap: livecache.Snapshot{
			ID:        "3b241101-e2bb-4255-8caf-4136c566a962",
			Records:   make([]marta.Arrival, 4),
			FetchedAt: fetchedAt,
		},
		stats: metrics.FetchSummary{Successes: 12, Failures: 1, MeanLatencyMs: 240},
	}

	h := NewHealthHandler(cache, stubPinger{})
	h.now = func() time.Time { return fetchedAt.Add(7 * time.Second) }

	rec := httptest.NewRecorder()
	h.GetHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "connected", resp.Schedule)
	assert.Equal(t, 4, resp.Cache.Records)
	require.NotNil(t, resp.Cache.AgeSeconds)
	assert.Equal(t, 7, *resp.Cache.AgeSeconds)
	assert.Equal(t, "3b241101-e2bb-4255-8caf-4136c566a962", resp.Cache.SnapshotID)
	assert.Equal(t, 12, resp.Cache.Upstream.Successes)
	assert.Equal(t, 1, resp.Cache.Upstream.Failures)
	assert.Equal(t, 240.0, resp.Cache.Upstream.MeanLatencyMs)
}

func TestGetHealthDegraded(t *testing.T) {
	tests := []struct {
		name     string
		store    Pinger
		schedule string
	}{
		{"no store", nil, "unavailable"},
		{"store down", stubPinger{err: errors.New("database is locked")}, "unavailable"},
		{"store up", stubPinger{}, "connected"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubProvider{}, stubCache{}, tc.store)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			// never fetched, so always degraded
			assert.Equal(t, "degraded", resp.Status)
			assert.Equal(t, tc.schedule, resp.Schedule)
			assert.Nil(t, resp.Cache.FetchedAt)
		})
	}
}

func TestLivenessEndpoints(t *testing.T) {
	router := newTestRouter(&stubProvider{}, stubCache{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, "pong", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(NewArrivalsHandler(&stubProvider{}), NewHealthHandler(stubCache{}, nil), []string{"https://sign.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/arrivals", nil)
	req.Header.Set("Origin", "https://sign.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://sign.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
