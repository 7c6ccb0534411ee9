package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/room-vacancy/backend/internal/api/middleware"
	"github.com/room-vacancy/backend/internal/storage/models"
)

// RunLister reads run history.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.AvailabilityRun, error)
}

// RunTrigger starts runs in the background.
type RunTrigger interface {
	TriggerNow(trigger string)
	NextRun() *time.Time
}

// TriggerResponse acknowledges a manual run request.
type TriggerResponse struct {
	Status    string     `json:"status"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// ListRuns returns the most recent runs, newest first. ?limit= caps the
// count.
func ListRuns(runs RunLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxRunLimit {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "limit must be between 1 and 200")
				return
			}
			limit = n
		}

		list, err := runs.ListRecent(r.Context(), limit)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query runs")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// TriggerRun starts a recompute and returns immediately.
func TriggerRun(trigger RunTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trigger.TriggerNow(models.RunTriggerManual)
		middleware.WriteJSON(w, http.StatusAccepted, TriggerResponse{
			Status:    "accepted",
			NextRunAt: trigger.NextRun(),
		})
	}
}
