package websocket

import (
	"go.uber.org/zap"

	"github.com/room-vacancy/backend/internal/storage/models"
)

// EventBroadcaster turns run lifecycle changes into hub broadcasts.
type EventBroadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub, logger *zap.Logger) *EventBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBroadcaster{hub: hub, logger: logger}
}

// RunStarted sends a run.started event.
func (b *EventBroadcaster) RunStarted(run models.AvailabilityRun) {
	b.broadcast(NewMessage(TypeRunStarted, RunStartedPayload{
		RunID:       run.ID,
		TriggeredBy: run.TriggeredBy,
		StartedAt:   run.StartedAt,
	}))
}

// RunCompleted sends a run.completed event.
func (b *EventBroadcaster) RunCompleted(run models.AvailabilityRun) {
	payload := RunCompletedPayload{
		RunID:      run.ID,
		Courses:    run.Courses,
		Skipped:    run.Skipped,
		Places:     run.Places,
		Rooms:      run.Rooms,
		Unresolved: run.Unresolved,
	}
	if run.FinishedAt != nil {
		payload.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	}
	b.broadcast(NewMessage(TypeRunCompleted, payload))
}

// RunFailed sends a run.failed event.
func (b *EventBroadcaster) RunFailed(run models.AvailabilityRun, err error) {
	b.broadcast(NewMessage(TypeRunFailed, RunFailedPayload{
		RunID:   run.ID,
		Error:   "run_error",
		Message: err.Error(),
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		b.logger.Error("Encoding WebSocket message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	b.hub.Broadcast(data)
}
