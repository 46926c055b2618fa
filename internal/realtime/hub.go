package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/separation-management/internal/core/events"
)

const sendBuffer = 16

// Message is what subscribers of a case stream receive.
type Message struct {
	Type       string      `json:"type"`
	EventID    string      `json:"event_id,omitempty"`
	CaseID     int64       `json:"case_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// subscriber is one open stream. Slow subscribers are dropped rather than blocking the bus.
type subscriber struct {
	caseID int64
	send   chan []byte
}

// Hub fans lifecycle events out to the streams watching each case.
type Hub struct {
	mu     sync.RWMutex
	cases  map[int64]map[*subscriber]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		cases:  make(map[int64]map[*subscriber]struct{}),
		logger: logger,
	}
}

func (h *Hub) subscribe(caseID int64) *subscriber {
	sub := &subscriber{caseID: caseID, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cases[caseID] == nil {
		h.cases[caseID] = make(map[*subscriber]struct{})
	}
	h.cases[caseID][sub] = struct{}{}
	return sub
}

// unsubscribe is safe to call more than once.
func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.cases[sub.caseID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.cases, sub.caseID)
	}
}

// Subscribers reports how many streams are open for a case.
func (h *Hub) Subscribers(caseID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cases[caseID])
}

// Broadcast sends msg to every stream on the message's case.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode stream message", "case_id", msg.CaseID, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*subscriber
	for sub := range h.cases[msg.CaseID] {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Warn("dropping slow stream subscriber", "case_id", sub.caseID)
		h.unsubscribe(sub)
	}
}

func (h *Hub) HandleLifecycleEvent(_ context.Context, event events.Event) error {
	caseID, ok := events.CaseRef(event)
	if !ok {
		return nil
	}
	h.Broadcast(Message{
		Type:       event.EventType(),
		EventID:    event.EventID(),
		CaseID:     caseID,
		OccurredAt: event.OccurredAt(),
		Payload:    event.Payload(),
	})
	return nil
}

func (h *Hub) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.SubscribeAll(events.LifecycleEventTypes, h.HandleLifecycleEvent)

	h.logger.Info("realtime event handlers registered", "handlers", events.LifecycleEventTypes)
}
