package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/separation"
	"github.com/frahmantamala/separation-management/internal/transport"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// CaseReader authorizes a viewer against a case.
type CaseReader interface {
	GetCase(ctx context.Context, actor *auth.Actor, id int64) (*separation.Case, error)
}

type Handler struct {
	*transport.BaseHandler
	cases    CaseReader
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from the given origins; "*" or an empty list allows any origin.
func NewHandler(base *transport.BaseHandler, cases CaseReader, hub *Hub, origins []string) *Handler {
	h := &Handler{
		BaseHandler: base,
		cases:       cases,
		hub:         hub,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}

// Stream upgrades to a websocket that receives every lifecycle event of the case.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.RequireActor(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	caseID, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.cases.GetCase(r.Context(), actor, caseID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "case_id", caseID, "error", err)
		return
	}

	sub := h.hub.subscribe(caseID)
	h.Logger.Info("case stream opened", "case_id", caseID, "actor_id", actor.ID)

	go h.writePump(conn, sub, Message{
		Type:       "connected",
		CaseID:     caseID,
		OccurredAt: time.Now(),
		Payload:    map[string]string{"case_number": c.CaseNumber, "status": string(c.Status)},
	})
	h.readPump(conn, sub)

	h.Logger.Info("case stream closed", "case_id", caseID, "actor_id", actor.ID)
}

// readPump discards client messages and returns once the connection drops.
func (h *Handler) readPump(conn *websocket.Conn, sub *subscriber) {
	defer func() {
		h.hub.unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Warn("case stream read error", "case_id", sub.caseID, "error", err)
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sub *subscriber, welcome Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}

	for {
		select {
		case data, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.Logger.Warn("case stream write failed", "case_id", sub.caseID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
