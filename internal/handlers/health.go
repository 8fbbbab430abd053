package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/radioacc/marta-sign/internal/livecache"
	"github.com/radioacc/marta-sign/internal/metrics"
)

// CacheStatus exposes the realtime snapshot without refreshing it
type CacheStatus interface {
	Snapshot() livecache.Snapshot
	Stats() metrics.FetchSummary
}

// Pinger checks the timetable store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports on the realtime cache and the timetable store
type HealthHandler struct {
	cache CacheStatus
	store Pinger // nil when running without a timetable
	now   func() time.Time
}

// NewHealthHandler creates a new health handler. store may be nil.
func NewHealthHandler(cache CacheStatus, store Pinger) *HealthHandler {
	return &HealthHandler{cache: cache, store: store, now: time.Now}
}

// CacheHealth describes the realtime snapshot
type CacheHealth struct {
	FetchedAt  *time.Time           `json:"fetchedAt"`
	AgeSeconds *int                 `json:"ageSeconds"`
	Records    int                  `json:"records"`
	SnapshotID string               `json:"snapshotId,omitempty"`
	Upstream   metrics.FetchSummary `json:"upstream"`
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string      `json:"status"`
	Cache     CacheHealth `json:"cache"`
	Schedule  string      `json:"schedule"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	scheduleConnected   = "connected"
	scheduleUnavailable = "unavailable"
)

// GetHealth handles GET /health
// Returns 200 even when degraded: the board still serves what it can.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	now := h.now().UTC()
	snap := h.cache.Snapshot()

	cache := CacheHealth{
		Records:    len(snap.Records),
		SnapshotID: snap.ID,
		Upstream:   h.cache.Stats(),
	}
	if !snap.FetchedAt.IsZero() {
		fetchedAt := snap.FetchedAt.UTC()
		age := int(now.Sub(fetchedAt) / time.Second)
		cache.FetchedAt = &fetchedAt
		cache.AgeSeconds = &age
	}

	schedule := scheduleUnavailable
	if h.store != nil {
		if err := h.store.Ping(ctx); err == nil {
			schedule = scheduleConnected
		}
	}

	status := "ok"
	if cache.FetchedAt == nil || schedule != scheduleConnected {
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Cache:     cache,
		Schedule:  schedule,
		Timestamp: now,
	})
}

// Healthz handles GET /healthz
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ping handles GET /api/ping
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}
