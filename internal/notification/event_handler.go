package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/separation-management/internal/core/events"
)

type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandleLifecycleEvent(ctx context.Context, event events.Event) error {
	caseID, _ := events.CaseRef(event)
	h.logger.Info("handling lifecycle event for notifications",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"case_id", caseID)

	if _, err := h.service.Notify(ctx, event); err != nil {
		h.logger.Error("failed to record notifications",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"case_id", caseID,
			"error", err)
		return fmt.Errorf("notifications failed for event %s: %w", event.EventID(), err)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.SubscribeAll(NotifiedEventTypes, h.HandleLifecycleEvent)

	h.logger.Info("notification event handlers registered", "handlers", NotifiedEventTypes)
}
