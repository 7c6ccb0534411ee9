// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/room-vacancy/backend/internal/api/middleware"
)

// Pinger checks a backing store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string     `json:"status"`
	DBConnected bool       `json:"db_connected"`
	ReportReady bool       `json:"report_ready"`
	LastRunID   string     `json:"last_run_id,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	Clients     int        `json:"ws_clients"`
}

// HealthCheck reports database connectivity and whether a report is being
// served. A missing report is not unhealthy; the first run may still be going.
func HealthCheck(db Pinger, reports ResultSource, hub ClientCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db == nil || db.PingContext(r.Context()) == nil

		response := HealthResponse{
			Status:      "healthy",
			DBConnected: dbConnected,
		}
		if latest, err := reports.Latest(); err == nil {
			response.ReportReady = true
			response.LastRunID = latest.Run.ID
			response.LastRunAt = latest.Run.FinishedAt
		}
		if hub != nil {
			response.Clients = hub.ClientCount()
		}

		status := http.StatusOK
		if !dbConnected {
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		middleware.WriteJSON(w, status, response)
	}
}
