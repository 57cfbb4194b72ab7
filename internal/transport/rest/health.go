package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/sheets"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

type HealthHandler struct {
	provider *sheets.Provider
	cfg      *internal.SheetsConfig
}

func NewHealthHandler(provider *sheets.Provider, cfg *internal.SheetsConfig) *HealthHandler {
	return &HealthHandler{provider: provider, cfg: cfg}
}

// pingHandler just says the process is up.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// healthCheckHandler verifies that a client for each configured spreadsheet
// can be obtained. It does not read sheet data; the quota is too small to
// spend on readiness probes.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{
		"time_tracking_sheet": h.checkSpreadsheet(ctx, h.cfg.TimeTrackingID),
		"inventory_sheet":     h.checkSpreadsheet(ctx, h.cfg.InventoryID),
	}

	overall := HealthHealthy
	for _, entry := range components {
		if entry.Status == HealthUnhealthy {
			overall = HealthUnhealthy
			break
		}
	}

	statusCode := http.StatusOK
	if overall == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: components,
	})
}

func (h *HealthHandler) checkSpreadsheet(ctx context.Context, id string) CheckEntry {
	start := time.Now()
	entry := CheckEntry{
		Status:    HealthHealthy,
		CheckedAt: time.Now(),
	}
	if _, err := h.provider.Spreadsheet(ctx, id); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}
